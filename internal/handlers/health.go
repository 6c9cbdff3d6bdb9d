package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/adiwijaya/rukun/pkg/http"
	"github.com/redis/go-redis/v9"
)

// DatabaseHealthChecker reports database liveness
type DatabaseHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	db  DatabaseHealthChecker
	rdb redis.UniversalClient
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DatabaseHealthChecker, rdb redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

// Health checks the service and its backing stores.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{
		"status":   "ok",
		"database": "ok",
		"cache":    "ok",
	}
	code := http.StatusOK

	if err := h.db.HealthCheck(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	if err := h.rdb.Ping(ctx).Err(); err != nil {
		status["status"] = "degraded"
		status["cache"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	pkghttp.WriteJSON(w, code, status)
}
