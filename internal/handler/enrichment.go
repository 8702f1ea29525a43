package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/travelglobe/travelglobe-go/internal/middleware"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/service"
)

// EnrichmentHandler serves country details and news. Both routes run
// behind the optional guard; authenticated callers also get their travel
// status for the country.
type EnrichmentHandler struct {
	service *service.EnrichmentService
	travel  *service.TravelService
}

// NewEnrichmentHandler creates a new EnrichmentHandler. travel may be nil
// when account storage is unavailable.
func NewEnrichmentHandler(svc *service.EnrichmentService, travel *service.TravelService) *EnrichmentHandler {
	return &EnrichmentHandler{service: svc, travel: travel}
}

// HandleCountryInfo handles GET /api/country-info/{iso2} requests.
func (h *EnrichmentHandler) HandleCountryInfo(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.CountryInfo(r.Context(), chi.URLParam(r, "iso2"))
	if err != nil {
		if errors.Is(err, service.ErrCountryNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		writeServiceError(w, r, err)
		return
	}

	resp.TravelStatus = h.travelStatus(r, resp.ISO2)
	writeJSON(w, http.StatusOK, resp)
}

// HandleCountryNews handles GET /api/country-news/{iso2}?name= requests.
func (h *EnrichmentHandler) HandleCountryNews(w http.ResponseWriter, r *http.Request) {
	iso2 := chi.URLParam(r, "iso2")

	resp, err := h.service.CountryNews(r.Context(), iso2, r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp.TravelStatus = h.travelStatus(r, iso2)
	writeJSON(w, http.StatusOK, resp)
}

// travelStatus is empty for anonymous callers. A storage failure here only
// drops the field; the enrichment payload is still served.
func (h *EnrichmentHandler) travelStatus(r *http.Request, iso2 string) model.TravelStatus {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || h.travel == nil {
		return ""
	}

	status, err := h.travel.StatusOf(r.Context(), user.ID, iso2)
	if err != nil {
		slog.Warn("travel status lookup failed", "user_id", user.ID, "iso2", iso2, "error", err)
		return ""
	}
	return status
}
