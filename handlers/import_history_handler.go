// handlers/import_history_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gewnthar/verif-rotation/database"
	"github.com/gewnthar/verif-rotation/models"
)

const (
	defaultImportLimit = 20
	maxImportLimit     = 100
)

// ImportHistory reads past imports. Implemented by database.ImportStore.
type ImportHistory interface {
	ListImports(ctx context.Context, limit int) ([]models.ImportSummary, error)
	ListImportErrors(ctx context.Context, importID string) ([]models.UnresolvedTrip, error)
	Ping(ctx context.Context) error
}

type ImportHistoryHandler struct {
	history ImportHistory
}

// NewImportHistoryHandler accepts a nil history, in which case every
// endpoint answers 404.
func NewImportHistoryHandler(history ImportHistory) *ImportHistoryHandler {
	return &ImportHistoryHandler{history: history}
}

// ListImports handles GET /imports?limit=N.
func (h *ImportHistoryHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondWithError(w, http.StatusNotFound, "Import history is disabled")
		return
	}

	limit := defaultImportLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit': must be a positive integer")
			return
		}
		limit = min(n, maxImportLimit)
	}

	imports, err := h.history.ListImports(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list imports: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, models.ImportListResponse{Imports: imports})
}

// ListImportErrors handles GET /imports/{importID}/errors.
func (h *ImportHistoryHandler) ListImportErrors(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondWithError(w, http.StatusNotFound, "Import history is disabled")
		return
	}

	importID := chi.URLParam(r, "importID")
	rows, err := h.history.ListImportErrors(r.Context(), importID)
	switch {
	case errors.Is(err, database.ErrImportNotFound):
		respondWithError(w, http.StatusNotFound, "Unknown import "+importID)
		return
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, "Failed to list import errors: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, models.ImportErrorsResponse{ImportID: importID, Errors: rows})
}
