// internal/api/insights.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"repo-insights/internal/auth"
	custom_errors "repo-insights/internal/errors"
	"repo-insights/internal/github"
	"repo-insights/internal/metrics"
)

const (
	maxBodyBytes  = 10 << 20
	recordTimeout = 10 * time.Second
)

type generateRequest struct {
	RepoURL string `json:"repoUrl"`
}

// generateInsights handles POST /api/insights.
func (h *Handler) generateInsights(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req generateRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON object")
		return
	}
	if req.RepoURL == "" {
		respondWithError(w, http.StatusBadRequest, "missing_repo_url", "Please provide a valid GitHub repository URL")
		return
	}
	if _, err := github.ParseRepoURL(req.RepoURL); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_repo_url", "Please provide a valid GitHub repository URL (e.g., https://github.com/username/repo)")
		return
	}

	allowed, err := h.cooldown.Allow(r.Context(), req.RepoURL)
	if err != nil {
		// A broken shared store must not block analyses.
		h.logger.Warn("Cooldown check failed, allowing request", "repo_url", req.RepoURL, "error", err)
		allowed = true
	}
	if !allowed {
		metrics.CooldownRejections.Inc()
		respondWithError(w, http.StatusTooManyRequests, "cooldown", "Please wait a moment before requesting the same repository again")
		return
	}

	logger := h.logger.With("repo_url", req.RepoURL, "user_id", claims.ID)
	logger.Info("Processing repository")

	res, err := h.insights.Generate(r.Context(), req.RepoURL)
	if err != nil {
		status, code, message := classifyGenerateError(err)
		logger.Error("Failed to generate insights", "error", err, "status", status)
		respondWithError(w, status, code, message)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"data":      res.Insight,
		"timestamp": h.timestamp(),
		"user":      map[string]string{"name": claims.Name, "email": claims.Email},
	})

	// The save runs after the handler returns so it is bound by its own deadline,
	// not the request's, and outlives a client disconnect.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), recordTimeout)
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		defer cancel()
		h.insights.Record(ctx, claims.ID, res)
	}()
}

// classifyGenerateError maps a pipeline failure to its HTTP status and error envelope.
func classifyGenerateError(err error) (int, string, string) {
	kind := custom_errors.Kind(err)
	switch kind {
	case "invalid_repo_url":
		return http.StatusBadRequest, kind, err.Error()
	case "not_found":
		return http.StatusNotFound, kind, "The specified repository could not be found or is private"
	case "rate_limited":
		return http.StatusTooManyRequests, kind, "Too many requests. Please try again later."
	case "conflict":
		return http.StatusConflict, kind, "Please wait a moment before trying again"
	case "unauthorized":
		return http.StatusUnauthorized, kind, "Invalid API credentials"
	default:
		return http.StatusInternalServerError, "upstream", err.Error()
	}
}

// insightsHealth handles GET /api/insights/health.
func (h *Handler) insightsHealth(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":        "OK",
		"service":       "Insights API",
		"timestamp":     h.timestamp(),
		"authenticated": true,
		"user":          map[string]string{"name": claims.Name, "email": claims.Email},
	})
}

// currentUser handles GET /api/insights/user with the stored profile, which may be
// fresher than the token's claims.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	user, err := h.users.GetUser(r.Context(), claims.ID)
	if err != nil {
		h.logger.Error("Failed to fetch user", "user_id", claims.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "storage", "Failed to fetch user")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "user_not_found", "User not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// verifyToken handles GET /auth/verify and echoes the decoded claims.
func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "missing_token", "No token provided")
		return
	}
	claims, err := h.auth.Verify(token)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
		return
	}
	respondWithJSON(w, http.StatusOK, claims)
}

// logout handles POST /auth/logout. Tokens are stateless, so there is nothing to revoke.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
