package listings

import (
	"log/slog"
	"net/http"

	"fbmp/internal/errors"
	"fbmp/internal/json"

	"github.com/go-chi/chi/v5"
)

const badBodyMessage = "Input provided was not in the format expected"

type ListingsHandler struct {
	service ListingsService
}

func NewListingsHandler(svc ListingsService) *ListingsHandler {
	return &ListingsHandler{
		service: svc,
	}
}

// Mount registers the JSON API on r. Routes are flat so the router's
// MethodNotAllowed handler sees every pattern.
func (h *ListingsHandler) Mount(r chi.Router) {
	r.Get("/api/listings", h.ListListings)
	r.Post("/api/listings", h.CreateListing)
	r.Options("/api/listings", Preflight)

	r.Get("/api/listings/stats/today", h.GetTodayStats)
	r.Options("/api/listings/stats/today", Preflight)

	r.Get("/api/listings/status/{status}", h.ListListingsByStatus)
	r.Options("/api/listings/status/{status}", Preflight)

	r.Get("/api/listings/{id}", h.GetListingByID)
	r.Put("/api/listings/{id}", h.UpdateListing)
	r.Delete("/api/listings/{id}", h.DeleteListing)
	r.Options("/api/listings/{id}", Preflight)
}

// Preflight answers OPTIONS with an empty 200. CORS headers are added by the
// cors middleware when the request carries an Origin.
func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *ListingsHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.DebugContext(ctx, "Fetching listings")

	rows, err := h.service.ListListings(ctx)
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, ListingsResponse{Success: true, Data: rows, Count: len(rows)})
}

func (h *ListingsHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CreateListingRequest{}
	if err := json.Read(w, r, &req); err != nil {
		slog.WarnContext(ctx, "Invalid request body", "error", err)
		errors.RespondError(w, r, errors.New(errors.ErrInvalidInput, badBodyMessage, err).WithDetails(err.Error()))
		return
	}

	listing, err := h.service.CreateListing(ctx, &req)
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusCreated, ListingResponse{Success: true, Data: listing})
}

func (h *ListingsHandler) GetTodayStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetTodayStats(r.Context())
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, StatsResponse{Success: true, Data: stats})
}

func (h *ListingsHandler) ListListingsByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := chi.URLParam(r, "status")
	slog.DebugContext(ctx, "Fetching listings by status", "status", status)

	rows, parsed, err := h.service.ListListingsByStatus(ctx, status)
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, ListingsByStatusResponse{
		Success: true,
		Data:    rows,
		Count:   len(rows),
		Status:  parsed,
	})
}

func (h *ListingsHandler) GetListingByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID := chi.URLParam(r, "id")
	slog.DebugContext(ctx, "Fetching listing by ID", "listing_id", listingID)

	listing, err := h.service.GetListingByID(ctx, listingID)
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, ListingResponse{Success: true, Data: listing})
}

func (h *ListingsHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID := chi.URLParam(r, "id")

	req := UpdateListingRequest{}
	if err := json.Read(w, r, &req); err != nil {
		slog.WarnContext(ctx, "Invalid request body", "error", err)
		errors.RespondError(w, r, errors.New(errors.ErrInvalidInput, badBodyMessage, err).WithDetails(err.Error()))
		return
	}

	listing, err := h.service.UpdateListing(ctx, listingID, &req)
	if err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, ListingResponse{Success: true, Data: listing})
}

func (h *ListingsHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")

	if err := h.service.DeleteListing(r.Context(), listingID); err != nil {
		errors.RespondError(w, r, err)
		return
	}

	json.Write(w, http.StatusOK, MessageResponse{Success: true, Message: "Listing deleted successfully"})
}
