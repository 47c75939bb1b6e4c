// internal/history/store.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"

	"repo-insights/internal/database"
	custom_errors "repo-insights/internal/errors"
	"repo-insights/internal/model"
)

// Entry is everything persisted for one analysis.
type Entry struct {
	Ref     model.RepoRef
	Insight model.Insight
	Stars   int
	Forks   int
}

// Store persists insights per user. Every read and delete is scoped to the owning user.
type Store struct {
	q      database.Querier
	logger *slog.Logger
}

// NewStore creates a Store over any sqlc querier (pool, conn or tx).
func NewStore(q database.Querier, logger *slog.Logger) *Store {
	return &Store{q: q, logger: logger}
}

// Save inserts a new immutable history record for userID.
func (s *Store) Save(ctx context.Context, userID int64, e Entry) (*model.PersistedInsight, error) {
	technologies, err := json.Marshal(nonNil(e.Insight.Technologies))
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "encode technologies", Err: err}
	}
	payload, err := json.Marshal(e.Insight)
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "encode insight", Err: err}
	}

	row, err := s.q.CreateInsightHistory(ctx, database.CreateInsightHistoryParams{
		UserID:       userID,
		RepoUrl:      e.Insight.RepoURL,
		RepoName:     e.Ref.Repo,
		RepoOwner:    e.Ref.Owner,
		Summary:      e.Insight.Summary,
		Technologies: string(technologies),
		Insights:     string(payload),
		Stars:        clampInt32(e.Stars),
		Forks:        clampInt32(e.Forks),
	})
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "save", Err: err}
	}
	s.logger.Debug("Saved insight history", "id", row.ID, "user_id", userID, "repo_url", row.RepoUrl)
	return toPersisted(row)
}

// List returns one page of userID's history, most recent first.
func (s *Store) List(ctx context.Context, userID int64, page, limit int) (*model.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	total, err := s.q.CountInsightHistory(ctx, userID)
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "count", Err: err}
	}

	result := &model.HistoryPage{
		Items:      []model.PersistedInsight{},
		Pagination: Paginate(int(total), page, limit),
	}

	offset := int64(page-1) * int64(limit)
	if offset >= total || offset > math.MaxInt32 {
		return result, nil
	}

	rows, err := s.q.ListInsightHistory(ctx, database.ListInsightHistoryParams{
		UserID: userID,
		Limit:  clampInt32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "list", Err: err}
	}
	for _, row := range rows {
		item, err := toPersisted(row)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, *item)
	}
	return result, nil
}

// Get returns the record with id if it belongs to userID, or nil when absent.
func (s *Store) Get(ctx context.Context, id, userID int64) (*model.PersistedInsight, error) {
	row, err := s.q.GetInsightHistory(ctx, database.GetInsightHistoryParams{ID: id, UserID: userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "get", Err: err}
	}
	return toPersisted(row)
}

// Delete removes the record with id if it belongs to userID and reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id, userID int64) (bool, error) {
	n, err := s.q.DeleteInsightHistory(ctx, database.DeleteInsightHistoryParams{ID: id, UserID: userID})
	if err != nil {
		return false, &custom_errors.ErrStorage{Op: "delete", Err: err}
	}
	return n > 0, nil
}

// UpsertUser creates the user on first login and refreshes name, email and picture afterwards.
func (s *Store) UpsertUser(ctx context.Context, u model.User) (*model.User, error) {
	row, err := s.q.UpsertUser(ctx, database.UpsertUserParams{
		GoogleID: u.ExternalID,
		Name:     u.Name,
		Email:    u.Email,
		Picture:  u.Picture,
	})
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "upsert user", Err: err}
	}
	return toUser(row), nil
}

// GetUser returns the user with id, or nil when absent.
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row, err := s.q.GetUserByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &custom_errors.ErrStorage{Op: "get user", Err: err}
	}
	return toUser(row), nil
}

func toPersisted(row database.InsightHistory) (*model.PersistedInsight, error) {
	out := &model.PersistedInsight{
		ID:        row.ID,
		UserID:    row.UserID,
		RepoURL:   row.RepoUrl,
		RepoName:  row.RepoName,
		RepoOwner: row.RepoOwner,
		Summary:   row.Summary,
		Stars:     int(row.Stars),
		Forks:     int(row.Forks),
		CreatedAt: row.CreatedAt.Time,
	}
	if err := json.Unmarshal([]byte(row.Technologies), &out.Technologies); err != nil {
		return nil, &custom_errors.ErrStorage{Op: "decode technologies", Err: err}
	}
	if err := json.Unmarshal([]byte(row.Insights), &out.Insights); err != nil {
		return nil, &custom_errors.ErrStorage{Op: "decode insight", Err: err}
	}
	out.Technologies = nonNil(out.Technologies)
	return out, nil
}

func toUser(row database.User) *model.User {
	return &model.User{
		ID:         row.ID,
		ExternalID: row.GoogleID,
		Name:       row.Name,
		Email:      row.Email,
		Picture:    row.Picture,
		CreatedAt:  row.CreatedAt.Time,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clampInt32(n int) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < 0:
		return 0
	}
	return int32(n)
}
