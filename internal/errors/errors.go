// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// Upstream failure kinds returned by the repository data collector.
var (
	ErrRepoNotFound = errors.New("repository not found")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrUnauthorized = errors.New("invalid API key")
	ErrConflict     = errors.New("repository already being processed")
	ErrUpstream     = errors.New("failed to fetch GitHub data")
)

// ErrInvalidRepoURL is returned when a submitted URL is not of the form https://github.com/<owner>/<repo>.
type ErrInvalidRepoURL struct {
	URL string
}

func (e *ErrInvalidRepoURL) Error() string {
	return fmt.Sprintf("invalid GitHub repository URL: %q, expected 'https://github.com/owner/repo'", e.URL)
}

// ErrUpstreamStatus carries the HTTP status GitHub answered with alongside the failure kind.
type ErrUpstreamStatus struct {
	Kind   error
	Status int
	Err    error
}

func (e *ErrUpstreamStatus) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v (status %d): %v", e.Kind, e.Status, e.Err)
}

// Is lets errors.Is match the failure kind.
func (e *ErrUpstreamStatus) Is(target error) bool {
	return e.Kind == target
}

func (e *ErrUpstreamStatus) Unwrap() error {
	return e.Err
}

// ErrStorage wraps any failure reported by the storage engine.
type ErrStorage struct {
	Op  string
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error {
	return e.Err
}

// Kind returns a stable machine-readable name for the category of err.
func Kind(err error) string {
	var invalid *ErrInvalidRepoURL
	var storage *ErrStorage
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return "invalid_repo_url"
	case errors.Is(err, ErrRepoNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.As(err, &storage):
		return "storage"
	default:
		return "upstream"
	}
}
