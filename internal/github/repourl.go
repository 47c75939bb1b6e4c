// internal/github/repourl.go
package github

import (
	"regexp"

	custom_errors "repo-insights/internal/errors"
	"repo-insights/internal/model"
)

var repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)$`)

// ParseRepoURL extracts owner and repository name from https://github.com/<owner>/<repo>.
// Any other scheme, host or number of path segments is rejected.
func ParseRepoURL(raw string) (model.RepoRef, error) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return model.RepoRef{}, &custom_errors.ErrInvalidRepoURL{URL: raw}
	}
	return model.RepoRef{Owner: m[1], Repo: m[2]}, nil
}
