package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/travelglobe/travelglobe-go/internal/middleware"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/service"
)

// TravelHandler handles HTTP requests for a user's visited and wishlist sets.
type TravelHandler struct {
	service *service.TravelService
}

// NewTravelHandler creates a new TravelHandler.
func NewTravelHandler(svc *service.TravelService) *TravelHandler {
	return &TravelHandler{service: svc}
}

type travelMutation func(ctx context.Context, userID, code string) (model.TravelState, error)

// HandleState handles GET /api/travel requests.
func (h *TravelHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, func(state model.TravelState) any { return state.ToResponse() })
}

// HandleListVisited handles GET /api/visited requests.
func (h *TravelHandler) HandleListVisited(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, visitedOnly)
}

// HandleListWishlist handles GET /api/wishlist requests.
func (h *TravelHandler) HandleListWishlist(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, wishlistOnly)
}

// HandleMarkVisited handles POST /api/visited/{iso2} requests.
func (h *TravelHandler) HandleMarkVisited(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.MarkVisited, func(state model.TravelState) any { return state.ToResponse() })
}

// HandleUnmarkVisited handles DELETE /api/visited/{iso2} requests.
func (h *TravelHandler) HandleUnmarkVisited(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.UnmarkVisited, visitedOnly)
}

// HandleAddToWishlist handles POST /api/wishlist/{iso2} requests.
func (h *TravelHandler) HandleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.AddToWishlist, func(state model.TravelState) any { return state.ToResponse() })
}

// HandleRemoveFromWishlist handles DELETE /api/wishlist/{iso2} requests.
func (h *TravelHandler) HandleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.RemoveFromWishlist, wishlistOnly)
}

func (h *TravelHandler) read(w http.ResponseWriter, r *http.Request, render func(model.TravelState) any) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	state, err := h.service.State(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, render(state))
}

func (h *TravelHandler) mutate(w http.ResponseWriter, r *http.Request, op travelMutation, render func(model.TravelState) any) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	state, err := op(r.Context(), user.ID, chi.URLParam(r, "iso2"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, render(state))
}

func visitedOnly(state model.TravelState) any {
	return model.VisitedResponse{VisitedCountries: state.ToResponse().VisitedCountries}
}

func wishlistOnly(state model.TravelState) any {
	return model.WishlistResponse{WishlistCountries: state.ToResponse().WishlistCountries}
}
