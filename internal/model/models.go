// internal/model/models.go
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RepoRef identifies a GitHub repository parsed from its URL.
type RepoRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// Contributor is one of the top contributors of a repository.
type Contributor struct {
	Name          string `json:"name"`
	Contributions int    `json:"contributions"`
	Avatar        string `json:"avatar"`
}

// TimelineEvent is a yearly milestone of a repository.
type TimelineEvent struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// CommitCount is an estimated commit total. It encodes as a JSON number when
// known and as the string "Unknown" otherwise.
type CommitCount struct {
	N     int
	Known bool
}

// KnownCommits returns a known commit count.
func KnownCommits(n int) CommitCount {
	return CommitCount{N: n, Known: true}
}

func (c CommitCount) String() string {
	if !c.Known {
		return "Unknown"
	}
	return strconv.Itoa(c.N)
}

func (c CommitCount) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return []byte(`"Unknown"`), nil
	}
	return []byte(strconv.Itoa(c.N)), nil
}

func (c *CommitCount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = KnownCommits(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("commit count must be a number or string: %w", err)
	}
	if n, err := strconv.Atoi(s); err == nil {
		*c = KnownCommits(n)
		return nil
	}
	*c = CommitCount{}
	return nil
}

// ImportantFileKey names a documentation or configuration file probed during collection.
type ImportantFileKey string

const (
	FileReadme       ImportantFileKey = "readme"
	FilePackageJSON  ImportantFileKey = "packageJson"
	FileContributing ImportantFileKey = "contributing"
	FileCIConfig     ImportantFileKey = "ciConfig"
	FileRequirements ImportantFileKey = "requirements"
	FilePomXML       ImportantFileKey = "pomXml"
	FileGradle       ImportantFileKey = "gradle"
	FileCargo        ImportantFileKey = "cargo"
	FileComposer     ImportantFileKey = "composer"
	FileGemfile      ImportantFileKey = "gemfile"
	FileGoMod        ImportantFileKey = "goMod"
	FilePyproject    ImportantFileKey = "pyproject"
)

// ImportantFile is a fetched file and the path it was found at.
type ImportantFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ImportantFiles maps each key to the first candidate found, or nil when absent.
type ImportantFiles map[ImportantFileKey]*ImportantFile

// CollectedRepoData is the snapshot gathered from GitHub for a single analysis.
type CollectedRepoData struct {
	Contributors   []Contributor
	ProjectAge     string
	TotalCommits   CommitCount
	Timeline       []TimelineEvent
	Stars          int
	Forks          int
	Language       *string
	Description    *string
	Topics         []string
	Languages      map[string]int
	ImportantFiles ImportantFiles
}

// Feature is a titled description used for key features and use cases.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StructuredAnalysis is the validated AI-derived part of an insight.
type StructuredAnalysis struct {
	Summary      string    `json:"summary"`
	KeyFeatures  []Feature `json:"keyFeatures"`
	Technologies []string  `json:"technologies"`
	UseCases     []Feature `json:"useCases"`
}

// Analytics is the GitHub-derived part of an insight.
type Analytics struct {
	Contributors []Contributor   `json:"contributors"`
	ProjectAge   string          `json:"projectAge"`
	TotalCommits CommitCount     `json:"totalCommits"`
	Timeline     []TimelineEvent `json:"timeline"`
}

// Insight is the result of one repository analysis.
type Insight struct {
	RepoURL      string    `json:"repoUrl"`
	Name         string    `json:"name"`
	Summary      string    `json:"summary"`
	KeyFeatures  []Feature `json:"keyFeatures"`
	Technologies []string  `json:"technologies"`
	UseCases     []Feature `json:"useCases"`
	Analytics    Analytics `json:"analytics"`
}

// User is an account created on first login through the OAuth provider.
type User struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"google_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Picture    string    `json:"picture"`
	CreatedAt  time.Time `json:"created_at"`
}

// PersistedInsight is an insight stored in a user's history.
type PersistedInsight struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	RepoURL      string    `json:"repo_url"`
	RepoName     string    `json:"repo_name"`
	RepoOwner    string    `json:"repo_owner"`
	Summary      string    `json:"summary"`
	Technologies []string  `json:"technologies"`
	Insights     Insight   `json:"insights"`
	Stars        int       `json:"stars"`
	Forks        int       `json:"forks"`
	CreatedAt    time.Time `json:"created_at"`
}

// Pagination summarizes a page of history.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// HistoryPage is one page of a user's history, most recent first.
type HistoryPage struct {
	Items      []PersistedInsight
	Pagination Pagination
}
