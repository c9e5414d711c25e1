package handler

import (
	"net/http"

	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/common"

	"github.com/go-chi/chi/v5"
)

type InvitationHandler struct {
	invitationService *service.InvitationService
}

func NewInvitationHandler(invitationService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

func (h *InvitationHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.Authorize(middleware.Management))

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{id}", h.delete)
}

func (h *InvitationHandler) list(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invitationService.List(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, invitations)
}

func (h *InvitationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.invitationService.Create(r.Context(), principal(r), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, inv)
}

func (h *InvitationHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.invitationService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Invitation deleted")
}
