package handler

import (
	"net/http"
	"strconv"

	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ParticipantHandler struct {
	participantService *service.ParticipantService
	resetPassword      http.Handler
}

// NewParticipantHandler takes the password reset handler so the legacy
// /participants/reset-password path keeps working.
func NewParticipantHandler(participantService *service.ParticipantService, resetPassword http.Handler) *ParticipantHandler {
	return &ParticipantHandler{participantService: participantService, resetPassword: resetPassword}
}

func (h *ParticipantHandler) RegisterRoutes(r chi.Router) {
	if h.resetPassword != nil {
		r.Method(http.MethodPost, "/reset-password", h.resetPassword)
	}

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)

		authed.With(middleware.Authorize(middleware.Management)).Get("/", h.list)
		authed.With(middleware.Authorize(middleware.Management)).Get("/role/{roleId}", h.listByRole)
		authed.With(middleware.Authorize(middleware.ScanCapable)).Get("/country/{country}", h.listByCountry)
		authed.With(middleware.Authorize(middleware.ScanCapable)).Get("/bib/{bib}", h.getByBib)

		authed.Put("/{id}", h.update)
		authed.Group(func(own chi.Router) {
			own.Use(middleware.Authorize(middleware.OwnDataOrManager("id")))
			own.Get("/{id}", h.get)
			own.Get("/{id}/events", h.events)
			own.Get("/{id}/upcoming-events", h.upcomingEvents)
		})
	})
}

func (h *ParticipantHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participantService.List(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ps)
}

func (h *ParticipantHandler) listByRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.Atoi(chi.URLParam(r, "roleId"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid role id")
		return
	}
	ps, err := h.participantService.ListByRole(r.Context(), roleID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ps)
}

func (h *ParticipantHandler) listByCountry(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participantService.ListByCountry(r.Context(), chi.URLParam(r, "country"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ps)
}

func (h *ParticipantHandler) getByBib(w http.ResponseWriter, r *http.Request) {
	p, err := h.participantService.GetByBib(r.Context(), chi.URLParam(r, "bib"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *ParticipantHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.participantService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

// update lets participants edit their own record. Role changes and edits of
// other records are checked in the service.
func (h *ParticipantHandler) update(w http.ResponseWriter, r *http.Request) {
	var u model.ParticipantUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	p, err := h.participantService.Update(r.Context(), principal(r), chi.URLParam(r, "id"), u)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *ParticipantHandler) events(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participantService.Events(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ps)
}

func (h *ParticipantHandler) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.participantService.UpcomingEvents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, events)
}
