package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/api/response"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/ipo"
	iposvc "github.com/Mohammad-Azeem/catalyst-markets/internal/service/ipo"
)

// IPOHandler serves IPO listing and advisor endpoints.
type IPOHandler struct {
	svc *iposvc.Service
}

// NewIPOHandler creates a new IPOHandler
func NewIPOHandler(svc *iposvc.Service) *IPOHandler {
	return &IPOHandler{svc: svc}
}

// List handles GET /api/v1/ipos with an optional status filter.
func (h *IPOHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *ipo.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := ipo.Status(raw)
		if !s.IsValid() {
			response.BadRequest(w, r, "invalid status", raw)
			return
		}
		status = &s
	}

	h.list(w, r, status)
}

// Upcoming handles GET /api/v1/ipos/upcoming
func (h *IPOHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	s := ipo.StatusUpcoming
	h.list(w, r, &s)
}

// Open handles GET /api/v1/ipos/open
func (h *IPOHandler) Open(w http.ResponseWriter, r *http.Request) {
	s := ipo.StatusOpen
	h.list(w, r, &s)
}

func (h *IPOHandler) list(w http.ResponseWriter, r *http.Request, status *ipo.Status) {
	ipos, err := h.svc.List(r.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list IPOs")
		response.InternalError(w, r, "failed to list ipos")
		return
	}

	response.SuccessList(w, r, ipos, len(ipos))
}

// Get handles GET /api/v1/ipos/{id}
func (h *IPOHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	row, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to load ipo")
		return
	}

	response.Success(w, r, row)
}

// Advice handles GET /api/v1/ipos/{id}/advice. The verdict is
// recomputed from the row's current metrics, not read from the
// persisted advisory fields.
func (h *IPOHandler) Advice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	row, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "failed to load ipo")
		return
	}

	response.Success(w, r, iposvc.Advise(row))
}

type ipoMetricsRequest struct {
	GMPPercent      *float64 `json:"gmp_percent"`
	SubscriptionQIB *float64 `json:"subscription_qib"`
	SubscriptionNII *float64 `json:"subscription_nii"`
	SubscriptionRet *float64 `json:"subscription_retail"`
}

// UpdateMetrics handles PUT /api/v1/ipos/{id}/metrics. Refreshing the
// grey-market and subscription numbers re-runs the advisor.
func (h *IPOHandler) UpdateMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ipoMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", err.Error())
		return
	}

	row, err := h.svc.UpdateMetrics(r.Context(), ipo.MetricsUpdate{
		ID:              id,
		GMPPercent:      req.GMPPercent,
		SubscriptionQIB: req.SubscriptionQIB,
		SubscriptionNII: req.SubscriptionNII,
		SubscriptionRet: req.SubscriptionRet,
	})
	if err != nil {
		h.writeError(w, r, err, "failed to update ipo metrics")
		return
	}

	response.SuccessWithMessage(w, r, row, "metrics updated")
}

func (h *IPOHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ipo.ErrIPONotFound):
		response.NotFound(w, r, "ipo not found")
	case errors.Is(err, ipo.ErrInvalidStatus):
		response.BadRequest(w, r, "invalid status", "")
	default:
		log.Error().Err(err).Msg("IPO operation failed")
		response.InternalError(w, r, fallback)
	}
}
