package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/middleware"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/response"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/watchlist"
	watchlistsvc "github.com/Mohammad-Azeem/catalyst-markets/internal/service/watchlist"
)

// WatchlistHandler serves user watchlist endpoints. All routes are
// bearer-authenticated; the user ID comes from the request context.
type WatchlistHandler struct {
	svc *watchlistsvc.Service
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(svc *watchlistsvc.Service) *WatchlistHandler {
	return &WatchlistHandler{svc: svc}
}

// List handles GET /api/v1/watchlists
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	lists, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list watchlists")
		response.InternalError(w, r, "failed to list watchlists")
		return
	}

	response.SuccessList(w, r, lists, len(lists))
}

// Get handles GET /api/v1/watchlists/{id}
func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	wl, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err, "failed to load watchlist")
		return
	}

	response.Success(w, r, wl)
}

type createWatchlistRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/v1/watchlists
func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", err.Error())
		return
	}

	wl, err := h.svc.Create(r.Context(), userID, req.Name)
	if err != nil {
		h.writeError(w, r, err, "failed to create watchlist")
		return
	}

	response.Created(w, r, wl, "watchlist created")
}

// Delete handles DELETE /api/v1/watchlists/{id}
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err, "failed to delete watchlist")
		return
	}

	response.NoContent(w)
}

type watchlistStockRequest struct {
	Symbol string `json:"symbol"`
}

// AddStock handles POST /api/v1/watchlists/{id}/stocks
func (h *WatchlistHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req watchlistStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", err.Error())
		return
	}

	if err := h.svc.AddStock(r.Context(), userID, id, req.Symbol); err != nil {
		h.writeError(w, r, err, "failed to add stock to watchlist")
		return
	}

	response.SuccessWithMessage(w, r, nil, "stock added")
}

// RemoveStock handles DELETE /api/v1/watchlists/{id}/stocks/{symbol}
func (h *WatchlistHandler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.RemoveStock(r.Context(), userID, id, mux.Vars(r)["symbol"]); err != nil {
		h.writeError(w, r, err, "failed to remove stock from watchlist")
		return
	}

	response.NoContent(w)
}

func (h *WatchlistHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, watchlist.ErrWatchlistNotFound):
		response.NotFound(w, r, "watchlist not found")
	case errors.Is(err, watchlist.ErrNotOwner):
		response.Forbidden(w, r, "watchlist does not belong to user")
	case errors.Is(err, watchlist.ErrInvalidName):
		response.BadRequest(w, r, "invalid watchlist name", "")
	case errors.Is(err, watchlist.ErrAlreadyWatched):
		response.Conflict(w, r, "stock already in watchlist")
	case errors.Is(err, watchlist.ErrNotWatched):
		response.NotFound(w, r, "stock not in watchlist")
	case errors.Is(err, stock.ErrStockNotFound):
		response.NotFound(w, r, "stock not found")
	default:
		log.Error().Err(err).Msg("Watchlist operation failed")
		response.InternalError(w, r, fallback)
	}
}

// pathID parses the {id} path variable, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(w, r, "invalid id", raw)
		return 0, false
	}
	return id, true
}
