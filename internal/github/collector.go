// internal/github/collector.go
package github

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"repo-insights/internal/model"
)

// fileCandidate lists the paths tried, in order, for an important file.
type fileCandidate struct {
	key   model.ImportantFileKey
	paths []string
}

var importantFileCandidates = []fileCandidate{
	{model.FileReadme, []string{"README.md", "readme.md", "README.MD"}},
	{model.FilePackageJSON, []string{"package.json"}},
	{model.FileContributing, []string{"CONTRIBUTING.md", "contributing.md"}},
	{model.FileCIConfig, []string{
		".github/workflows/ci.yml", ".github/workflows/ci.yaml",
		".github/workflows/build.yml", ".github/workflows/build.yaml",
		".travis.yml", ".circleci/config.yml",
	}},
	{model.FileRequirements, []string{"requirements.txt", "requirements-dev.txt"}},
	{model.FilePomXML, []string{"pom.xml"}},
	{model.FileGradle, []string{"build.gradle", "build.gradle.kts"}},
	{model.FileCargo, []string{"Cargo.toml"}},
	{model.FileComposer, []string{"composer.json"}},
	{model.FileGemfile, []string{"Gemfile", "Gemfile.lock"}},
	{model.FileGoMod, []string{"go.mod"}},
	{model.FilePyproject, []string{"pyproject.toml"}},
}

// Collect gathers everything the analysis needs about a repository.
// Metadata is fetched first so a missing or private repository fails fast;
// contributors, the commit estimate and important files are then fetched concurrently.
func (c *Client) Collect(ctx context.Context, owner, name string) (*model.CollectedRepoData, error) {
	logger := c.logger.With("owner", owner, "repo", name)
	logger.Info("Fetching GitHub data")

	repo, err := c.GetRepository(ctx, owner, name)
	if err != nil {
		logger.Error("Failed to fetch repository metadata", "error", err)
		return nil, err
	}

	var (
		contributors []model.Contributor
		commits      model.CommitCount
		languages    map[string]int
		files        model.ImportantFiles
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contributors, err = c.GetContributors(gctx, owner, name)
		return err
	})
	g.Go(func() error {
		var err error
		commits, err = c.EstimateCommitCount(gctx, owner, name)
		return err
	})
	g.Go(func() error {
		var err error
		languages, err = c.GetLanguages(gctx, owner, name)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Could not fetch languages", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		files = c.GetImportantFiles(gctx, owner, name)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to fetch repository analytics", "error", err)
		return nil, err
	}

	created := repo.GetCreatedAt().Time
	data := &model.CollectedRepoData{
		Contributors:   contributors,
		ProjectAge:     projectAgeLabel(created, c.now()),
		TotalCommits:   commits,
		Timeline:       buildTimeline(created, repo.GetUpdatedAt().Time, repo.GetPushedAt().Time),
		Stars:          repo.GetStargazersCount(),
		Forks:          repo.GetForksCount(),
		Language:       repo.Language,
		Description:    repo.Description,
		Topics:         repo.Topics,
		Languages:      languages,
		ImportantFiles: files,
	}
	if data.Topics == nil {
		data.Topics = []string{}
	}

	logger.Info("GitHub data collected", "total_commits", commits.String(), "important_files", len(files))
	return data, nil
}

// GetImportantFiles probes every important-file key. Each key keeps the first
// candidate that exists. Missing files and fetch errors leave the key absent.
func (c *Client) GetImportantFiles(ctx context.Context, owner, name string) model.ImportantFiles {
	found := make([]*model.ImportantFile, len(importantFileCandidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fileConcurrency)
	for i, candidate := range importantFileCandidates {
		i, candidate := i, candidate
		g.Go(func() error {
			found[i] = c.probeFile(gctx, owner, name, candidate)
			return nil
		})
	}
	_ = g.Wait()

	files := make(model.ImportantFiles)
	for i, candidate := range importantFileCandidates {
		if found[i] != nil {
			files[candidate.key] = found[i]
		}
	}
	return files
}

func (c *Client) probeFile(ctx context.Context, owner, name string, candidate fileCandidate) *model.ImportantFile {
	for _, path := range candidate.paths {
		if ctx.Err() != nil {
			return nil
		}
		content, ok, err := c.GetFileContent(ctx, owner, name, path)
		if err != nil {
			c.logger.Warn("Could not fetch file", "owner", owner, "repo", name, "path", path, "error", err)
			continue
		}
		if ok {
			c.logger.Debug("Found important file", "key", candidate.key, "path", path)
			return &model.ImportantFile{Path: path, Content: content}
		}
	}
	return nil
}

// avatarInitials derives a two character label from a login.
func avatarInitials(login string) string {
	runes := []rune(login)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
