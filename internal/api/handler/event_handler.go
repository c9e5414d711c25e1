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

const maxUpcomingLimit = 50

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Get("/start-lists", h.startLists)
	r.Get("/results", h.results)
	r.Get("/upcoming", h.upcoming)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/", h.list)
		authed.Get("/date/{date}", h.listByDate)
		authed.Get("/class/{className}", h.listByClass)
		authed.Get("/{id}", h.get)
		authed.Get("/{id}/participants", h.participants)

		authed.Group(func(manage chi.Router) {
			manage.Use(middleware.Authorize(middleware.Management))
			manage.Post("/", h.create)
			manage.Put("/{id}", h.update)
			manage.Delete("/{id}", h.delete)
		})
	})
}

func (h *EventHandler) respondEvents(w http.ResponseWriter, events []model.Event, err error) {
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, events)
}

func (h *EventHandler) startLists(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.PublishedStartLists(r.Context())
	h.respondEvents(w, events, err)
}

func (h *EventHandler) results(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.PublishedResults(r.Context())
	h.respondEvents(w, events, err)
}

// upcoming takes an optional ?limit, defaulting to service.DefaultUpcomingLimit.
func (h *EventHandler) upcoming(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultUpcomingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxUpcomingLimit {
			common.RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxUpcomingLimit))
			return
		}
		limit = n
	}
	events, err := h.eventService.Upcoming(r.Context(), limit)
	h.respondEvents(w, events, err)
}

func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.List(r.Context())
	h.respondEvents(w, events, err)
}

func (h *EventHandler) listByDate(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListByDate(r.Context(), chi.URLParam(r, "date"))
	h.respondEvents(w, events, err)
}

func (h *EventHandler) listByClass(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListByClass(r.Context(), chi.URLParam(r, "className"))
	h.respondEvents(w, events, err)
}

func (h *EventHandler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.eventService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, e)
}

func (h *EventHandler) participants(w http.ResponseWriter, r *http.Request) {
	ps, err := h.eventService.Participants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, ps)
}

func (h *EventHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.eventService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, e)
}

func (h *EventHandler) update(w http.ResponseWriter, r *http.Request) {
	var u model.EventUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	e, err := h.eventService.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, e)
}

func (h *EventHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.eventService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Event deleted")
}
