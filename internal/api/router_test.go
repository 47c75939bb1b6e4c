// internal/api/router_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"repo-insights/internal/auth"
	"repo-insights/internal/cooldown"
	custom_errors "repo-insights/internal/errors"
	"repo-insights/internal/history"
	"repo-insights/internal/insights"
	"repo-insights/internal/model"
)

type MockInsightService struct{ mock.Mock }

func (m *MockInsightService) Generate(ctx context.Context, repoURL string) (*insights.Result, error) {
	args := m.Called(ctx, repoURL)
	if r := args.Get(0); r != nil {
		return r.(*insights.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInsightService) Record(ctx context.Context, userID int64, res *insights.Result) {
	m.Called(ctx, userID, res)
}

type MockHistoryStore struct{ mock.Mock }

func (m *MockHistoryStore) Save(ctx context.Context, userID int64, e history.Entry) (*model.PersistedInsight, error) {
	args := m.Called(ctx, userID, e)
	if p := args.Get(0); p != nil {
		return p.(*model.PersistedInsight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHistoryStore) List(ctx context.Context, userID int64, page, limit int) (*model.HistoryPage, error) {
	args := m.Called(ctx, userID, page, limit)
	if p := args.Get(0); p != nil {
		return p.(*model.HistoryPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHistoryStore) Get(ctx context.Context, id, userID int64) (*model.PersistedInsight, error) {
	args := m.Called(ctx, id, userID)
	if p := args.Get(0); p != nil {
		return p.(*model.PersistedInsight), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHistoryStore) Delete(ctx context.Context, id, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

type MockUserStore struct{ mock.Mock }

func (m *MockUserStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type testEnv struct {
	router   http.Handler
	insights *MockInsightService
	history  *MockHistoryStore
	users    *MockUserStore
	token    string
}

const repoURL = "https://github.com/octo/hello"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := issuer.Issue(model.User{ID: 42, ExternalID: "g-42", Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	env := &testEnv{insights: new(MockInsightService), history: new(MockHistoryStore), users: new(MockUserStore), token: token}
	env.router = NewRouter(Deps{
		Insights: env.insights,
		History:  env.history,
		Users:    env.users,
		Cooldown: cooldown.NewMemory(5 * time.Second),
		Auth:     issuer,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sampleResult() *insights.Result {
	return &insights.Result{Entry: history.Entry{
		Ref:     model.RepoRef{Owner: "octo", Repo: "hello"},
		Insight: model.Insight{RepoURL: repoURL, Name: "hello", Summary: "A greeter.", Analytics: model.Analytics{TotalCommits: model.KnownCommits(3)}},
		Stars:   4,
	}}
}

func TestRouter_PublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode(t, rec)["status"])

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route_not_found", decode(t, rec)["error"])
}

func TestRouter_AuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/insights", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/spoons/history", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env.insights.AssertNotCalled(t, "Generate")
	env.history.AssertNotCalled(t, "List")
}

func TestVerifyToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/auth/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "g-42", body["google_id"])
	assert.Equal(t, float64(42), body["id"])

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/verify", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateInsights_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty body", "", "missing_repo_url"},
		{"missing url", `{}`, "missing_repo_url"},
		{"not json", `repo`, "invalid_body"},
		{"http scheme", `{"repoUrl":"http://github.com/octo/hello"}`, "invalid_repo_url"},
		{"extra segment", `{"repoUrl":"https://github.com/octo/hello/tree"}`, "invalid_repo_url"},
		{"other host", `{"repoUrl":"https://gitlab.com/octo/hello"}`, "invalid_repo_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/insights", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode(t, rec)["error"])
		})
	}
	env.insights.AssertNotCalled(t, "Generate")
}

func TestGenerateInsights_SuccessAndCooldown(t *testing.T) {
	env := newTestEnv(t)
	res := sampleResult()

	env.insights.On("Generate", mock.Anything, repoURL).Return(res, nil).Once()
	recorded := make(chan context.Context, 1)
	env.insights.On("Record", mock.Anything, int64(42), res).Run(func(args mock.Arguments) {
		recorded <- args.Get(0).(context.Context)
	}).Once()

	rec := env.do(http.MethodPost, "/api/insights", `{"repoUrl":"`+repoURL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"name": "Ada", "email": "ada@example.com"}, body["user"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "A greeter.", data["summary"])
	assert.Equal(t, float64(3), data["analytics"].(map[string]any)["totalCommits"])
	assert.NotEmpty(t, body["timestamp"])

	rec = env.do(http.MethodPost, "/api/insights", `{"repoUrl":"`+repoURL+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "cooldown", decode(t, rec)["error"])

	select {
	case ctx := <-recorded:
		deadline, ok := ctx.Deadline()
		require.True(t, ok, "history save runs under its own deadline")
		assert.WithinDuration(t, time.Now().Add(recordTimeout), deadline, recordTimeout)
		assert.NoError(t, ctx.Err(), "history save is not cancelled when the request ends")
	case <-time.After(2 * time.Second):
		t.Fatal("history was not recorded")
	}
	env.insights.AssertExpectations(t)
}

func TestGenerateInsights_RecordDoesNotHoldResponse(t *testing.T) {
	env := newTestEnv(t)
	res := sampleResult()
	release := make(chan struct{})
	done := make(chan struct{})

	env.insights.On("Generate", mock.Anything, repoURL).Return(res, nil).Once()
	env.insights.On("Record", mock.Anything, int64(42), res).Run(func(mock.Arguments) {
		<-release
		close(done)
	}).Once()

	rec := env.do(http.MethodPost, "/api/insights", `{"repoUrl":"`+repoURL+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code, "a slow save must not turn into a 504")
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("history was not recorded")
	}
}

func TestGenerateInsights_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", &custom_errors.ErrUpstreamStatus{Kind: custom_errors.ErrRepoNotFound, Status: 404}, http.StatusNotFound, "not_found"},
		{"rate limited", &custom_errors.ErrUpstreamStatus{Kind: custom_errors.ErrRateLimited, Status: 403}, http.StatusTooManyRequests, "rate_limited"},
		{"unauthorized", &custom_errors.ErrUpstreamStatus{Kind: custom_errors.ErrUnauthorized, Status: 401}, http.StatusUnauthorized, "unauthorized"},
		{"conflict", custom_errors.ErrConflict, http.StatusConflict, "conflict"},
		{"other", errors.New("socket hang up"), http.StatusInternalServerError, "upstream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.insights.On("Generate", mock.Anything, repoURL).Return(nil, tt.err).Once()

			rec := env.do(http.MethodPost, "/api/insights", `{"repoUrl":"`+repoURL+`"}`)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.code, body["error"])
			assert.Equal(t, false, body["success"])
			env.insights.AssertNotCalled(t, "Record")
		})
	}

	t.Run("500 carries the error message", func(t *testing.T) {
		env := newTestEnv(t)
		env.insights.On("Generate", mock.Anything, repoURL).Return(nil, errors.New("socket hang up")).Once()

		rec := env.do(http.MethodPost, "/api/insights", `{"repoUrl":"`+repoURL+`"}`)

		assert.Equal(t, "socket hang up", decode(t, rec)["message"])
	})
}

func TestInsightsUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("GetUser", mock.Anything, int64(42)).
		Return(&model.User{ID: 42, ExternalID: "g-42", Name: "Ada L.", Email: "ada@example.com", Picture: "https://img/ada.png"}, nil).Once()

	rec := env.do(http.MethodGet, "/api/insights/user", "")
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, float64(42), user["id"])
	assert.Equal(t, "Ada L.", user["name"], "stored profile wins over token claims")
	assert.Equal(t, "https://img/ada.png", user["picture"])

	rec = env.do(http.MethodGet, "/api/insights/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Insights API", decode(t, rec)["service"])
	env.users.AssertExpectations(t)
}

func TestCurrentUser_Failures(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("GetUser", mock.Anything, int64(42)).Return(nil, nil).Once()

		rec := env.do(http.MethodGet, "/api/insights/user", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "user_not_found", decode(t, rec)["error"])
	})

	t.Run("storage error", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("GetUser", mock.Anything, int64(42)).Return(nil, errors.New("conn reset")).Once()

		rec := env.do(http.MethodGet, "/api/insights/user", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "storage", decode(t, rec)["error"])
	})
}

func TestListHistory(t *testing.T) {
	page := &model.HistoryPage{
		Items:      []model.PersistedInsight{{ID: 1, RepoURL: repoURL, Technologies: []string{}}},
		Pagination: history.Paginate(1, 1, 5),
	}

	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 5},
		{"?page=2&limit=10", 2, 10},
		{"?page=abc&limit=-3", 1, 5},
		{"?page=0&limit=0", 1, 5},
		{"?limit=1000", 1, maxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := newTestEnv(t)
			env.history.On("List", mock.Anything, int64(42), tt.page, tt.limit).Return(page, nil).Once()

			rec := env.do(http.MethodGet, "/api/spoons/history"+tt.query, "")

			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Len(t, body["history"], 1)
			assert.Equal(t, float64(1), body["pagination"].(map[string]any)["totalPages"])
			env.history.AssertExpectations(t)
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.history.On("List", mock.Anything, int64(42), 1, 5).Return(nil, &custom_errors.ErrStorage{Op: "list", Err: errors.New("down")}).Once()

		rec := env.do(http.MethodGet, "/api/spoons/history", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetHistory(t *testing.T) {
	env := newTestEnv(t)
	env.history.On("Get", mock.Anything, int64(7), int64(42)).Return(&model.PersistedInsight{ID: 7, RepoURL: repoURL}, nil).Once()
	env.history.On("Get", mock.Anything, int64(8), int64(42)).Return(nil, nil).Once()

	rec := env.do(http.MethodGet, "/api/spoons/history/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), decode(t, rec)["spoon"].(map[string]any)["id"])

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/spoons/history/8", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/spoons/history/abc", "").Code)
	env.history.AssertExpectations(t)
}

func TestDeleteHistory(t *testing.T) {
	env := newTestEnv(t)
	env.history.On("Delete", mock.Anything, int64(7), int64(42)).Return(true, nil).Once()
	env.history.On("Delete", mock.Anything, int64(8), int64(42)).Return(false, nil).Once()

	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/api/spoons/history/7", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/spoons/history/8", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/spoons/history/-1", "").Code)
	env.history.AssertExpectations(t)
}

func TestSaveHistory(t *testing.T) {
	env := newTestEnv(t)
	env.history.On("Save", mock.Anything, int64(42), mock.MatchedBy(func(e history.Entry) bool {
		return e.Ref == model.RepoRef{Owner: "octo", Repo: "hello"} && e.Insight.Name == "hello" && e.Stars == 3
	})).Return(&model.PersistedInsight{ID: 9}, nil).Once()

	rec := env.do(http.MethodPost, "/api/spoons/history", `{"repo_url":"`+repoURL+`","insights":{"summary":"s"},"stars":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(9), decode(t, rec)["spoon"].(map[string]any)["id"])

	rec = env.do(http.MethodPost, "/api/spoons/history", `{"repo_url":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.history.AssertExpectations(t)
}
