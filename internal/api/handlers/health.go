package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/database/postgres"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	dbPool    *postgres.Pool
	cache     *cache.Cache
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(dbPool *postgres.Pool, c *cache.Cache, version string) *HealthHandler {
	return &HealthHandler{
		dbPool:    dbPool,
		cache:     c,
		startTime: time.Now(),
		version:   version,
	}
}

// SimpleHealthResponse represents a simple health check response
type SimpleHealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// DetailedHealthResponse represents detailed health information
type DetailedHealthResponse struct {
	Status        string                     `json:"status"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Timestamp     time.Time                  `json:"timestamp"`
	Components    map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Message      string `json:"message,omitempty"`
}

// Health returns the liveness and dependency status.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	dbStart := time.Now()
	dbStatus := h.dbPool.Health(ctx)
	db := ComponentHealth{
		Status:       dbStatus.Status,
		ResponseTime: time.Since(dbStart).String(),
	}
	if dbStatus.Status != "healthy" {
		db.Message = dbStatus.Error
		overall = dbStatus.Status
	}
	components["database"] = db

	redisStart := time.Now()
	redis := ComponentHealth{Status: "healthy"}
	if err := h.cache.Health(ctx); err != nil {
		redis.Status = "unhealthy"
		redis.Message = err.Error()
		// A down cache degrades quote serving but the API stays up.
		if overall == "healthy" {
			overall = "degraded"
		}
	}
	redis.ResponseTime = time.Since(redisStart).String()
	components["redis"] = redis

	status := http.StatusOK
	if overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(DetailedHealthResponse{
		Status:        overall,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now(),
		Components:    components,
	})
}

// Live answers the bare liveness check.
// GET /health/live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SimpleHealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}
