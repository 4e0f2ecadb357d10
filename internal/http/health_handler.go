package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type healthView struct {
	Status string `json:"status"`
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.deps.Ping(ctx); err != nil {
			rt.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, Fail("backend unavailable"))
			return
		}
	}
	writeJSON(w, http.StatusOK, Ok(healthView{Status: "ok"}))
}
