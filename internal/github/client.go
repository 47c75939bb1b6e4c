// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "repo-insights/internal/errors"
	"repo-insights/internal/model"
)

const (
	defaultTimeout  = 10 * time.Second
	maxContributors = 5
	// Number of important-file keys probed in parallel
	fileConcurrency = 4
)

// Config configures the GitHub client.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewClient creates and configures a new Client instance.
// An authenticated http.Client is used when a token is configured; public
// repositories can still be collected anonymously.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}

	gh := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:     gh,
		logger: logger,
		now:    time.Now,
	}, nil
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*github.Repository, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, classify(err)
	}
	return repo, nil
}

// GetContributors fetches the top contributors ordered by contribution count.
func (c *Client) GetContributors(ctx context.Context, owner, name string) ([]model.Contributor, error) {
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: maxContributors},
	}
	ghContributors, _, err := c.gh.Repositories.ListContributors(ctx, owner, name, opts)
	if err != nil {
		return nil, classify(err)
	}

	contributors := make([]model.Contributor, 0, len(ghContributors))
	for _, gc := range ghContributors {
		if len(contributors) == maxContributors {
			break
		}
		contributors = append(contributors, toInternalContributor(gc))
	}
	return contributors, nil
}

// EstimateCommitCount requests a single commit per page and reads the last
// page number from the pagination links. Without a last link the count is unknown.
func (c *Client) EstimateCommitCount(ctx context.Context, owner, name string) (model.CommitCount, error) {
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	}
	_, resp, err := c.gh.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		return model.CommitCount{}, classify(err)
	}
	if resp == nil || resp.LastPage == 0 {
		return model.CommitCount{}, nil
	}
	return model.KnownCommits(resp.LastPage), nil
}

// GetLanguages fetches the byte count per language.
func (c *Client) GetLanguages(ctx context.Context, owner, name string) (map[string]int, error) {
	langs, _, err := c.gh.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		return nil, classify(err)
	}
	return langs, nil
}

// GetFileContent fetches and decodes a file. It returns ok=false when the
// path does not exist or is not a regular file.
func (c *Client) GetFileContent(ctx context.Context, owner, name, path string) (string, bool, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	if file == nil || file.GetType() != "file" {
		return "", false, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return "", false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, content != "", nil
}

// classify translates go-github errors into the collector's failure kinds.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &custom_errors.ErrUpstreamStatus{Kind: custom_errors.ErrUpstream, Err: err}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &custom_errors.ErrUpstreamStatus{Kind: custom_errors.ErrRateLimited, Status: statusOf(rateErr.Response), Err: err}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &custom_errors.ErrUpstreamStatus{Kind: custom_errors.ErrRateLimited, Status: statusOf(abuseErr.Response), Err: err}
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		status := statusOf(ghErr.Response)
		kind := custom_errors.ErrUpstream
		switch status {
		case http.StatusNotFound:
			kind = custom_errors.ErrRepoNotFound
		case http.StatusForbidden:
			kind = custom_errors.ErrRateLimited
		case http.StatusUnauthorized:
			kind = custom_errors.ErrUnauthorized
		}
		return &custom_errors.ErrUpstreamStatus{Kind: kind, Status: status, Err: err}
	}

	return &custom_errors.ErrUpstreamStatus{Kind: custom_errors.ErrUpstream, Err: err}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// toInternalContributor translates a github.Contributor to our internal model.
func toInternalContributor(gc *github.Contributor) model.Contributor {
	return model.Contributor{
		Name:          gc.GetLogin(),
		Contributions: gc.GetContributions(),
		Avatar:        avatarInitials(gc.GetLogin()),
	}
}
