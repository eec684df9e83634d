// handlers/health_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gewnthar/verif-rotation/models"
)

// PointCounter reports the size of the reference index.
type PointCounter interface {
	Len() int
}

type HealthHandler struct {
	index   PointCounter
	history ImportHistory
}

func NewHealthHandler(index PointCounter, history ImportHistory) *HealthHandler {
	return &HealthHandler{index: index, history: history}
}

// Health handles GET /health. The service only serves once the reference
// index is loaded, so ok is always true here.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{OK: true, EmpPoints: h.index.Len()}

	if h.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Database = "up"
		if err := h.history.Ping(ctx); err != nil {
			log.Printf("WARN Health: database ping failed: %v", err)
			resp.Database = "down"
		}
	}

	respondWithJSON(w, http.StatusOK, resp)
}
