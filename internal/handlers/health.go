package handlers

import (
	"context"
	"net/http"
	"time"

	applog "kitchenops/internal/log"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health reports readiness. A configured database that cannot be pinged degrades
// the health check to 503 so the recipe API is taken out of rotation.
func Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: databaseStatus(r.Context()),
		Time:     time.Now().UTC(),
	}

	status := http.StatusOK
	if resp.Database == "unreachable" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func databaseStatus(ctx context.Context) string {
	if database == nil {
		return "not configured"
	}
	sqlDB, err := database.DB()
	if err != nil {
		applog.Error(ctx, "health check could not reach sql handle", "error", err)
		return "unreachable"
	}

	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		applog.Warn(ctx, "health check database ping failed", "error", err)
		return "unreachable"
	}
	return "ok"
}
