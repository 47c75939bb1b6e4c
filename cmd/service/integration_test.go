//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"repo-insights/internal/api"
	"repo-insights/internal/auth"
	"repo-insights/internal/config"
	"repo-insights/internal/database"
	"repo-insights/internal/model"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, string) {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(context.Background()))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(dbpool.Close)

	return dbpool, connStr
}

func fakeGitHub(t *testing.T) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/test-owner/test-repo":
			fmt.Fprintln(w, `{"id": 123, "owner": {"login": "test-owner"}, "name": "test-repo",
				"language": "Go", "stargazers_count": 12, "forks_count": 3,
				"created_at": "2021-02-01T00:00:00Z", "updated_at": "2021-06-01T00:00:00Z", "pushed_at": "2021-09-01T00:00:00Z"}`)
		case "/repos/test-owner/test-repo/contributors":
			fmt.Fprintln(w, `[{"login": "tester", "contributions": 9}]`)
		case "/repos/test-owner/test-repo/commits":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/test-owner/test-repo/commits?per_page=1&page=77>; rel="last"`, srv.URL))
			fmt.Fprintln(w, `[{"sha": "abc"}]`)
		case "/repos/test-owner/test-repo/languages":
			fmt.Fprintln(w, `{"Go": 100}`)
		case "/repos/test-owner/test-repo/contents/README.md":
			fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "path": "README.md", "content": %q}`,
				base64.StdEncoding.EncodeToString([]byte("# test-repo")))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `{"message": "Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fakeGemini(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		analysis := `{"summary":"A test repository.","keyFeatures":[{"title":"Testing","description":"Runs tests"}],"technologies":["Go"],"useCases":[]}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": analysis}}}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, connStr := setupTestDatabase(ctx, t)
	gh := fakeGitHub(t)
	gemini := fakeGemini(t)

	cfg := &config.Config{
		DBURL:           connStr,
		GithubAPIURL:    gh.URL,
		GithubTimeout:   5 * time.Second,
		AIProvider:      "gemini",
		AITimeout:       5 * time.Second,
		GeminiAPIKey:    "test-key",
		GeminiBaseURL:   gemini.URL,
		JWTSecret:       "integration-secret",
		JWTTTL:          time.Hour,
		CooldownWindow:  5 * time.Second,
		CooldownBackend: "memory",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	deps, cleanup, err := buildDeps(cfg, dbpool, logger)
	require.NoError(t, err)
	defer cleanup()
	server := httptest.NewServer(api.NewRouter(deps))
	defer server.Close()

	// Create a user the way the OAuth callback would, then sign a token for it
	user, err := database.New(dbpool).UpsertUser(ctx, database.UpsertUserParams{GoogleID: "g-1", Name: "Tester", Email: "t@example.com"})
	require.NoError(t, err)
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	require.NoError(t, err)
	token, err := issuer.Issue(model.User{ID: user.ID, ExternalID: user.GoogleID, Name: user.Name, Email: user.Email})
	require.NoError(t, err)

	call := func(method, path, body string) (int, map[string]any) {
		req, err := http.NewRequestWithContext(ctx, method, server.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
		return resp.StatusCode, out
	}

	// --- ACT ---
	status, body := call(http.MethodPost, "/api/insights", `{"repoUrl":"https://github.com/test-owner/test-repo"}`)

	// --- ASSERT ---
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "test-repo", data["name"])
	assert.Equal(t, "A test repository.", data["summary"])
	analytics := data["analytics"].(map[string]any)
	assert.Equal(t, float64(77), analytics["totalCommits"])
	assert.Len(t, analytics["timeline"], 1)

	status, _ = call(http.MethodPost, "/api/insights", `{"repoUrl":"https://github.com/test-owner/test-repo"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, body = call(http.MethodPost, "/api/insights", `{"repoUrl":"https://github.com/test-owner/missing"}`)
	assert.Equal(t, http.StatusNotFound, status, body)

	// The successful analysis is persisted in the background with the real star and fork counts
	var items []any
	require.Eventually(t, func() bool {
		status, body = call(http.MethodGet, "/api/spoons/history", "")
		items, _ = body["history"].([]any)
		return status == http.StatusOK && len(items) == 1
	}, 5*time.Second, 50*time.Millisecond)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(12), item["stars"])
	assert.Equal(t, "test-owner", item["repo_owner"])
	id := int64(item["id"].(float64))

	status, body = call(http.MethodGet, "/api/insights/user", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "g-1", body["user"].(map[string]any)["google_id"])

	status, _ = call(http.MethodDelete, fmt.Sprintf("/api/spoons/history/%d", id), "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(http.MethodGet, fmt.Sprintf("/api/spoons/history/%d", id), "")
	assert.Equal(t, http.StatusNotFound, status)
}
