// internal/api/history.go
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"repo-insights/internal/auth"
	"repo-insights/internal/github"
	"repo-insights/internal/history"
	"repo-insights/internal/model"
)

const (
	defaultPage  = 1
	defaultLimit = 5
	maxLimit     = 100
)

type saveHistoryRequest struct {
	RepoURL string        `json:"repo_url"`
	Insight model.Insight `json:"insights"`
	Stars   int           `json:"stars"`
	Forks   int           `json:"forks"`
}

// saveHistory handles POST /api/spoons/history for analyses produced elsewhere.
func (h *Handler) saveHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req saveHistoryRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON object")
		return
	}
	ref, err := github.ParseRepoURL(req.RepoURL)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_repo_url", err.Error())
		return
	}
	if req.Insight.RepoURL == "" {
		req.Insight.RepoURL = req.RepoURL
	}
	if req.Insight.Name == "" {
		req.Insight.Name = ref.Repo
	}

	saved, err := h.history.Save(r.Context(), claims.ID, history.Entry{Ref: ref, Insight: req.Insight, Stars: req.Stars, Forks: req.Forks})
	if err != nil {
		h.logger.Error("Failed to save spoon history", "user_id", claims.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "storage", "Failed to save spoon analysis")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Spoon analysis saved successfully",
		"spoon":   saved,
	})
}

// listHistory handles GET /api/spoons/history?page=&limit=.
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	page := positiveQueryInt(r, "page", defaultPage)
	limit := positiveQueryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	result, err := h.history.List(r.Context(), claims.ID, page, limit)
	if err != nil {
		h.logger.Error("Failed to fetch spoon history", "user_id", claims.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "storage", "Failed to fetch spoon history")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"history":    result.Items,
		"pagination": result.Pagination,
	})
}

// getHistory handles GET /api/spoons/history/{id}.
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	id, ok := historyID(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "not_found", "Spoon not found")
		return
	}

	spoon, err := h.history.Get(r.Context(), id, claims.ID)
	if err != nil {
		h.logger.Error("Failed to fetch spoon", "id", id, "user_id", claims.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "storage", "Failed to fetch spoon")
		return
	}
	if spoon == nil {
		respondWithError(w, http.StatusNotFound, "not_found", "Spoon not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "spoon": spoon})
}

// deleteHistory handles DELETE /api/spoons/history/{id}.
func (h *Handler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	id, ok := historyID(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "not_found", "Spoon not found or already deleted")
		return
	}

	deleted, err := h.history.Delete(r.Context(), id, claims.ID)
	if err != nil {
		h.logger.Error("Failed to delete spoon", "id", id, "user_id", claims.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "storage", "Failed to delete spoon")
		return
	}
	if !deleted {
		respondWithError(w, http.StatusNotFound, "not_found", "Spoon not found or already deleted")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Spoon deleted successfully"})
}

func historyID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// positiveQueryInt falls back to def when the parameter is missing, malformed or below 1.
func positiveQueryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
