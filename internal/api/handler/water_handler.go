package handler

import (
	"net/http"

	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/app/service"
	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type WaterHandler struct {
	waterService *service.WaterService
}

func NewWaterHandler(waterService *service.WaterService) *WaterHandler {
	return &WaterHandler{waterService: waterService}
}

func (h *WaterHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)

	r.Group(func(staff chi.Router) {
		staff.Use(middleware.Authorize(middleware.WaterCapable))
		staff.Post("/add", h.add)
		staff.Get("/participant/{bib}", h.historyByParticipant)
	})

	r.Group(func(manage chi.Router) {
		manage.Use(middleware.Authorize(middleware.Management))
		manage.Get("/", h.history)
		manage.Get("/country/{country}", h.historyByCountry)
		manage.Get("/totals/country", h.countryTotals)
		manage.Post("/add/country", h.addToCountry)
		manage.Post("/add/all", h.addToAll)
	})
}

func (h *WaterHandler) respondHistory(w http.ResponseWriter, hist *model.WaterHistory, err error) {
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, hist)
}

func (h *WaterHandler) add(w http.ResponseWriter, r *http.Request) {
	var req service.AddWaterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.waterService.AddBottles(r.Context(), principal(r), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, entry)
}

func (h *WaterHandler) addToCountry(w http.ResponseWriter, r *http.Request) {
	var req service.AddCountryWaterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.waterService.AddBottlesToCountry(r.Context(), principal(r), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, res)
}

func (h *WaterHandler) addToAll(w http.ResponseWriter, r *http.Request) {
	var req service.AddAllWaterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.waterService.AddBottlesToAll(r.Context(), principal(r), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, res)
}

func (h *WaterHandler) history(w http.ResponseWriter, r *http.Request) {
	hist, err := h.waterService.History(r.Context())
	h.respondHistory(w, hist, err)
}

func (h *WaterHandler) historyByParticipant(w http.ResponseWriter, r *http.Request) {
	hist, err := h.waterService.HistoryByParticipant(r.Context(), chi.URLParam(r, "bib"))
	h.respondHistory(w, hist, err)
}

func (h *WaterHandler) historyByCountry(w http.ResponseWriter, r *http.Request) {
	hist, err := h.waterService.HistoryByCountry(r.Context(), chi.URLParam(r, "country"))
	h.respondHistory(w, hist, err)
}

func (h *WaterHandler) countryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.waterService.CountryTotals(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, totals)
}
