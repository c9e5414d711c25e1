package handler

import (
	"net/http"
	"time"

	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

const qrImageSize = 256

type AuthHandler struct {
	authService           *service.AuthService
	identificationService *service.IdentificationService
	limit                 func(http.Handler) http.Handler
}

// NewAuthHandler wires the auth routes. limit guards the credential endpoints.
func NewAuthHandler(authService *service.AuthService, identificationService *service.IdentificationService, limit func(http.Handler) http.Handler) *AuthHandler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	return &AuthHandler{authService: authService, identificationService: identificationService, limit: limit}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(h.limit).Post("/login", h.login)
	r.Method(http.MethodPost, "/reset-password", h.ResetPasswordHandler())
	r.Post("/set-password", h.setPassword)
	r.With(middleware.OptionalAuthenticator).Post("/register", h.register)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/profile", h.profile)
		authed.Get("/roles", h.roles)
		authed.Get("/generate-qr", h.generateQR)
		authed.Get("/generate-qr.png", h.generateQRImage)

		authed.With(middleware.Authorize(middleware.Management)).Post("/admin/register", h.register)

		authed.Group(func(scan chi.Router) {
			scan.Use(middleware.Authorize(middleware.ScanCapable))
			scan.Get("/validate-qr/{token}", h.validateQR)
			scan.Post("/validate-qr", h.validateScan)
		})
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.authService.Register(r.Context(), req, principal(r))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, p)
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordHandler is the rate limited reset endpoint, also mounted under /participants.
func (h *AuthHandler) ResetPasswordHandler() http.Handler {
	return h.limit(http.HandlerFunc(h.resetPassword))
}

// resetPassword answers identically whether or not the email is registered.
func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "If the email is registered, a reset link has been sent")
}

func (h *AuthHandler) setPassword(w http.ResponseWriter, r *http.Request) {
	var req service.SetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.authService.SetPassword(r.Context(), req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Password updated")
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	p, err := h.authService.Profile(r.Context(), userID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *AuthHandler) roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.authService.Roles(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, roles)
}

func (h *AuthHandler) generateQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	code, err := h.identificationService.Generate(r.Context(), userID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, code)
}

// generateQRImage renders the scan URL of a fresh token as a PNG.
func (h *AuthHandler) generateQRImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	code, err := h.identificationService.Generate(r.Context(), userID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	png, err := qrcode.Encode(code.ScanURL, qrcode.Medium, qrImageSize)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-QR-Valid-Till", code.ValidTill.UTC().Format(time.RFC3339))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *AuthHandler) validateQR(w http.ResponseWriter, r *http.Request) {
	res, err := h.identificationService.Validate(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

type validateScanRequest struct {
	Data  string `json:"data"`
	Token string `json:"token"`
}

func (h *AuthHandler) validateScan(w http.ResponseWriter, r *http.Request) {
	var req validateScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	raw := req.Data
	if raw == "" {
		raw = req.Token
	}
	res, err := h.identificationService.ValidateScan(r.Context(), raw)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}
