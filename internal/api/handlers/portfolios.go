package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/middleware"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/response"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/portfolio"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
	portfoliosvc "github.com/Mohammad-Azeem/catalyst-markets/internal/service/portfolio"
)

// PortfolioHandler serves user portfolio and valuation endpoints.
type PortfolioHandler struct {
	svc *portfoliosvc.Service
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(svc *portfoliosvc.Service) *PortfolioHandler {
	return &PortfolioHandler{svc: svc}
}

// List handles GET /api/v1/portfolios
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	portfolios, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list portfolios")
		response.InternalError(w, r, "failed to list portfolios")
		return
	}

	response.SuccessList(w, r, portfolios, len(portfolios))
}

// Get handles GET /api/v1/portfolios/{id}
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err, "failed to load portfolio")
		return
	}

	response.Success(w, r, p)
}

type createPortfolioRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/v1/portfolios
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", err.Error())
		return
	}

	p, err := h.svc.Create(r.Context(), userID, req.Name)
	if err != nil {
		h.writeError(w, r, err, "failed to create portfolio")
		return
	}

	response.Created(w, r, p, "portfolio created")
}

// Delete handles DELETE /api/v1/portfolios/{id}
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err, "failed to delete portfolio")
		return
	}

	response.NoContent(w)
}

type holdingRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// SetHolding handles PUT /api/v1/portfolios/{id}/holdings. A repeated
// PUT for the same symbol replaces quantity and average price.
func (h *PortfolioHandler) SetHolding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", err.Error())
		return
	}

	holding, err := h.svc.SetHolding(r.Context(), userID, id, req.Symbol, req.Quantity, req.AvgPrice)
	if err != nil {
		h.writeError(w, r, err, "failed to save holding")
		return
	}

	response.Success(w, r, holding)
}

// RemoveHolding handles DELETE /api/v1/portfolios/{id}/holdings/{holdingID}
func (h *PortfolioHandler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	raw := mux.Vars(r)["holdingID"]
	holdingID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || holdingID < 1 {
		response.BadRequest(w, r, "invalid holding id", raw)
		return
	}

	if err := h.svc.RemoveHolding(r.Context(), userID, id, holdingID); err != nil {
		h.writeError(w, r, err, "failed to remove holding")
		return
	}

	response.NoContent(w)
}

// Value handles GET /api/v1/portfolios/{id}/value
func (h *PortfolioHandler) Value(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	valuation, err := h.svc.Value(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err, "failed to value portfolio")
		return
	}

	response.Success(w, r, valuation)
}

func (h *PortfolioHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, portfolio.ErrPortfolioNotFound):
		response.NotFound(w, r, "portfolio not found")
	case errors.Is(err, portfolio.ErrHoldingNotFound):
		response.NotFound(w, r, "holding not found")
	case errors.Is(err, portfolio.ErrNotOwner):
		response.Forbidden(w, r, "portfolio does not belong to user")
	case errors.Is(err, portfolio.ErrInvalidName):
		response.BadRequest(w, r, "invalid portfolio name", "")
	case errors.Is(err, portfolio.ErrInvalidQuantity),
		errors.Is(err, portfolio.ErrInvalidAvgPrice):
		response.BadRequest(w, r, "invalid holding", err.Error())
	case errors.Is(err, stock.ErrStockNotFound):
		response.NotFound(w, r, "stock not found")
	default:
		log.Error().Err(err).Msg("Portfolio operation failed")
		response.InternalError(w, r, fallback)
	}
}
