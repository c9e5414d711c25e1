package handler

import (
	"net/http"

	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ParticipationHandler struct {
	participationService *service.ParticipationService
}

func NewParticipationHandler(participationService *service.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{participationService: participationService}
}

func (h *ParticipationHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Get("/", h.list)
	r.Get("/participant/{participantId}", h.byParticipant)
	r.Get("/participant/{participantId}/upcoming", h.upcomingByParticipant)
	r.Get("/event/{eventId}", h.byEvent)
	r.Get("/event/{eventId}/medalists", h.medalists)

	r.Group(func(manage chi.Router) {
		manage.Use(middleware.Authorize(middleware.Management))
		manage.Post("/", h.create)
		manage.Put("/{participantId}/{eventId}", h.updateResult)
		manage.Delete("/{participantId}/{eventId}", h.delete)
	})
}

func (h *ParticipationHandler) respond(w http.ResponseWriter, ps []model.Participation, err error) {
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ps)
}

func (h *ParticipationHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participationService.List(r.Context())
	h.respond(w, ps, err)
}

func (h *ParticipationHandler) byParticipant(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participationService.ByParticipant(r.Context(), chi.URLParam(r, "participantId"))
	h.respond(w, ps, err)
}

func (h *ParticipationHandler) upcomingByParticipant(w http.ResponseWriter, r *http.Request) {
	events, err := h.participationService.UpcomingByParticipant(r.Context(), chi.URLParam(r, "participantId"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, events)
}

func (h *ParticipationHandler) byEvent(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participationService.ByEvent(r.Context(), chi.URLParam(r, "eventId"))
	h.respond(w, ps, err)
}

func (h *ParticipationHandler) medalists(w http.ResponseWriter, r *http.Request) {
	ps, err := h.participationService.Medalists(r.Context(), chi.URLParam(r, "eventId"))
	h.respond(w, ps, err)
}

func (h *ParticipationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateParticipationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.participationService.Create(r.Context(), principal(r), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *ParticipationHandler) updateResult(w http.ResponseWriter, r *http.Request) {
	var u model.ResultUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	p, err := h.participationService.UpdateResult(r.Context(), principal(r),
		chi.URLParam(r, "participantId"), chi.URLParam(r, "eventId"), u)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *ParticipationHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.participationService.Delete(r.Context(), chi.URLParam(r, "participantId"), chi.URLParam(r, "eventId"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Participation deleted")
}
