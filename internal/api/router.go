package api

import (
	"net/http"
	"time"

	"github.com/LOSS98/tunis-gp/internal/api/handler"
	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

const (
	requestTimeout  = 60 * time.Second
	rateLimitWindow = time.Minute
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth           *service.AuthService
	Identification *service.IdentificationService
	Participants   *service.ParticipantService
	Invitations    *service.InvitationService
	Events         *service.EventService
	Participations *service.ParticipationService
	Water          *service.WaterService
}

type Options struct {
	Tokens         *security.TokenIssuer
	Logger         *zap.Logger
	Limiter        middleware.Limiter
	LoginRateLimit int
	AllowedOrigins []string
	HealthChecks   map[string]handler.Check
}

func NewRouter(svc Services, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Retry-After", "X-QR-Valid-Till"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Verifier only reads the bearer token. Authenticator decides per route.
	r.Use(jwtauth.Verifier(opts.Tokens.JWTAuth()))

	healthHandler := handler.NewHealthHandler(opts.HealthChecks)
	r.Route("/health", healthHandler.RegisterRoutes)

	var limit func(http.Handler) http.Handler
	if opts.Limiter != nil && opts.LoginRateLimit > 0 {
		limit = middleware.RateLimit(opts.Limiter, "auth", opts.LoginRateLimit, rateLimitWindow)
	}

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(svc.Auth, svc.Identification, limit)
		api.Route("/auth", authHandler.RegisterRoutes)

		participantHandler := handler.NewParticipantHandler(svc.Participants, authHandler.ResetPasswordHandler())
		api.Route("/participants", participantHandler.RegisterRoutes)

		invitationHandler := handler.NewInvitationHandler(svc.Invitations)
		api.Route("/invitations", invitationHandler.RegisterRoutes)

		eventHandler := handler.NewEventHandler(svc.Events)
		api.Route("/events", eventHandler.RegisterRoutes)

		participationHandler := handler.NewParticipationHandler(svc.Participations)
		api.Route("/participations", participationHandler.RegisterRoutes)

		waterHandler := handler.NewWaterHandler(svc.Water)
		api.Route("/water", waterHandler.RegisterRoutes)
	})

	return r
}
