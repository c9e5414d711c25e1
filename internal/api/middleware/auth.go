package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/common/security"
	"github.com/LOSS98/tunis-gp/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDCtxKey    contextKey = "userID"
	PrincipalCtxKey contextKey = "principal"
)

// principalFromToken reads the jwtauth.Verifier result from the request context.
func principalFromToken(ctx context.Context) (*model.Principal, string) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		if errors.Is(err, jwtauth.ErrNoTokenFound) {
			return nil, "Authorization token required"
		}
		return nil, "Invalid token: " + err.Error()
	}
	if token == nil {
		return nil, "Authorization token required"
	}

	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return nil, "Invalid token claims: " + err.Error()
	}
	role, err := security.GetUserRoleFromClaims(claims)
	if err != nil {
		return nil, "Invalid token claims: " + err.Error()
	}
	return &model.Principal{UserID: userID, Role: role}, ""
}

func withPrincipal(ctx context.Context, p *model.Principal) context.Context {
	ctx = context.WithValue(ctx, PrincipalCtxKey, p)
	return context.WithValue(ctx, UserIDCtxKey, p.UserID)
}

// Authenticator rejects requests without a valid session token with 401.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, reason := principalFromToken(r.Context())
		if p == nil {
			common.RespondWithError(w, http.StatusUnauthorized, reason)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

// OptionalAuthenticator attaches a principal when a valid token is present and never rejects.
func OptionalAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, _ := principalFromToken(r.Context()); p != nil {
			r = r.WithContext(withPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// Policy decides whether an authenticated principal may proceed.
type Policy struct {
	Name  string
	Allow func(p *model.Principal, r *http.Request) bool
}

func AllowRoles(name string, roles ...string) Policy {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return Policy{
		Name:  name,
		Allow: func(p *model.Principal, _ *http.Request) bool { return allowed[p.Role] },
	}
}

var (
	Management   = AllowRoles("management", model.RoleAdmin, model.RoleLOC)
	WaterCapable = AllowRoles("water", model.RoleAdmin, model.RoleLOC, model.RoleVolunteer)
	ScanCapable  = AllowRoles("scan", model.RoleAdmin, model.RoleLOC, model.RoleVolunteer, model.RoleSecurity)
)

// OwnDataOrManager lets a participant reach routes about themselves, and managers reach any.
func OwnDataOrManager(param string) Policy {
	return Policy{
		Name: "own-data-or-manager",
		Allow: func(p *model.Principal, r *http.Request) bool {
			return p.IsManager() || chi.URLParam(r, param) == p.UserID
		},
	}
}

// Authorize must run after Authenticator. A denied policy yields 403.
func Authorize(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipalFromContext(r.Context())
			if !ok {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			if !policy.Allow(p, r) {
				zap.L().Debug("access denied",
					zap.String("policy", policy.Name),
					zap.String("role", p.Role),
					zap.String("path", r.URL.Path),
				)
				common.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetPrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(PrincipalCtxKey).(*model.Principal)
	return p, ok && p != nil
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}
