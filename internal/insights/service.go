// internal/insights/service.go
package insights

import (
	"context"
	"log/slog"
	"time"

	"repo-insights/internal/analysis"
	custom_errors "repo-insights/internal/errors"
	"repo-insights/internal/github"
	"repo-insights/internal/history"
	"repo-insights/internal/metrics"
	"repo-insights/internal/model"
)

// Collector gathers repository data from the hosting API.
type Collector interface {
	Collect(ctx context.Context, owner, name string) (*model.CollectedRepoData, error)
}

// Analyzer produces a structured analysis. It never fails; failures degrade to a fallback.
type Analyzer interface {
	Request(ctx context.Context, repoURL string, collected *model.CollectedRepoData, ref model.RepoRef) analysis.Outcome
}

// Recorder persists a finished insight for a user.
type Recorder interface {
	Save(ctx context.Context, userID int64, e history.Entry) (*model.PersistedInsight, error)
}

// Result is a generated insight plus what is persisted alongside it.
type Result struct {
	history.Entry
	Degraded bool
}

// Service runs the collect, analyze and assemble pipeline for one repository URL.
type Service struct {
	collector Collector
	analyzer  Analyzer
	recorder  Recorder
	logger    *slog.Logger
}

// NewService creates a new Service instance.
func NewService(collector Collector, analyzer Analyzer, recorder Recorder, logger *slog.Logger) *Service {
	return &Service{collector: collector, analyzer: analyzer, recorder: recorder, logger: logger}
}

// Generate parses repoURL, collects its data, requests an analysis and assembles the insight.
// Collector failures are returned as-is; analysis failures never are.
func (s *Service) Generate(ctx context.Context, repoURL string) (*Result, error) {
	ref, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("owner", ref.Owner, "repo", ref.Repo)
	logger.Info("Generating insights")

	start := time.Now()
	collected, err := s.collector.Collect(ctx, ref.Owner, ref.Repo)
	metrics.StageDuration.WithLabelValues("collect").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GithubErrors.WithLabelValues(custom_errors.Kind(err)).Inc()
		logger.Error("Failed to collect repository data", "error", err)
		return nil, err
	}

	start = time.Now()
	outcome := s.analyzer.Request(ctx, repoURL, collected, ref)
	metrics.StageDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())

	insight := Assemble(repoURL, ref, outcome.Analysis, collected)
	logger.Info("Insights generated", "degraded", outcome.Degraded, "total_commits", insight.Analytics.TotalCommits.String())

	return &Result{
		Entry: history.Entry{
			Ref:     ref,
			Insight: insight,
			Stars:   collected.Stars,
			Forks:   collected.Forks,
		},
		Degraded: outcome.Degraded,
	}, nil
}

// Record saves res to userID's history. Failures are logged and counted, never returned,
// so a response that was already prepared is not invalidated.
func (s *Service) Record(ctx context.Context, userID int64, res *Result) {
	logger := s.logger.With("user_id", userID, "repo_url", res.Insight.RepoURL)
	saved, err := s.recorder.Save(ctx, userID, res.Entry)
	if err != nil {
		metrics.HistorySaveFailures.Inc()
		logger.Error("Failed to save insight history", "error", err)
		return
	}
	logger.Info("Saved insight history", "id", saved.ID)
}

// Assemble merges the validated analysis with the collector's analytics.
func Assemble(repoURL string, ref model.RepoRef, a model.StructuredAnalysis, collected *model.CollectedRepoData) model.Insight {
	return model.Insight{
		RepoURL:      repoURL,
		Name:         ref.Repo,
		Summary:      a.Summary,
		KeyFeatures:  a.KeyFeatures,
		Technologies: a.Technologies,
		UseCases:     a.UseCases,
		Analytics: model.Analytics{
			Contributors: collected.Contributors,
			ProjectAge:   collected.ProjectAge,
			TotalCommits: collected.TotalCommits,
			Timeline:     collected.Timeline,
		},
	}
}
