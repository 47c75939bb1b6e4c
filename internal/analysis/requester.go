// internal/analysis/requester.go
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"repo-insights/internal/model"
)

// Generator sends a prompt to a structured-output model endpoint and returns
// the raw JSON text it produced.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error)
}

// Outcome is the result of an analysis request. A degraded outcome carries
// the fallback analysis and the reason the model response could not be used.
type Outcome struct {
	Analysis model.StructuredAnalysis
	Degraded bool
	Reason   string
}

// OutcomeObserver is notified of every outcome.
type OutcomeObserver func(provider string, degraded bool)

// Requester asks a Generator for a repository analysis.
type Requester struct {
	gen      Generator
	timeout  time.Duration
	logger   *slog.Logger
	observer OutcomeObserver
}

// NewRequester creates a Requester. A zero timeout leaves the deadline to the caller's context.
func NewRequester(gen Generator, timeout time.Duration, logger *slog.Logger, observer OutcomeObserver) *Requester {
	return &Requester{gen: gen, timeout: timeout, logger: logger, observer: observer}
}

// Request never fails: any generator, decoding or shape error degrades to Fallback.
func (r *Requester) Request(ctx context.Context, repoURL string, collected *model.CollectedRepoData, ref model.RepoRef) Outcome {
	logger := r.logger.With("owner", ref.Owner, "repo", ref.Repo, "provider", r.gen.Name())
	logger.Info("Requesting structured analysis")

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	outcome := r.request(ctx, repoURL, collected, ref)
	if outcome.Degraded {
		logger.Warn("Using fallback analysis", "reason", outcome.Reason)
	} else {
		logger.Info("Structured analysis completed")
	}
	if r.observer != nil {
		r.observer(r.gen.Name(), outcome.Degraded)
	}
	return outcome
}

func (r *Requester) request(ctx context.Context, repoURL string, collected *model.CollectedRepoData, ref model.RepoRef) Outcome {
	text, err := r.gen.Generate(ctx, BuildPrompt(repoURL, collected, ref), ResponseSchema())
	if err != nil {
		return degraded(ref, fmt.Sprintf("generation failed: %v", err))
	}
	analysis, err := ValidateJSON(text)
	if err != nil {
		return degraded(ref, err.Error())
	}
	return Outcome{Analysis: analysis}
}

func degraded(ref model.RepoRef, reason string) Outcome {
	return Outcome{Analysis: Fallback(ref), Degraded: true, Reason: reason}
}

// BuildPrompt embeds the repository identity, selected GitHub metadata and
// the important-file context into the analysis prompt.
func BuildPrompt(repoURL string, collected *model.CollectedRepoData, ref model.RepoRef) string {
	language := "Unknown"
	if collected.Language != nil && *collected.Language != "" {
		language = *collected.Language
	}
	topics := "None"
	if len(collected.Topics) > 0 {
		topics = strings.Join(collected.Topics, ", ")
	}

	var sb strings.Builder
	sb.WriteString("You are an expert software analyst. Analyze this GitHub repository and provide comprehensive insights based on ALL available information including README files, configuration files, and project structure.\n\n")
	fmt.Fprintf(&sb, "Repository URL: %s\n", repoURL)
	fmt.Fprintf(&sb, "Repository: %s/%s\n\n", ref.Owner, ref.Repo)
	sb.WriteString("GitHub Data:\n")
	fmt.Fprintf(&sb, "- Language: %s\n", language)
	if langs := languageBreakdown(collected.Languages); langs != "" {
		fmt.Fprintf(&sb, "- Languages: %s\n", langs)
	}
	if collected.Description != nil && *collected.Description != "" {
		fmt.Fprintf(&sb, "- Description: %s\n", *collected.Description)
	}
	fmt.Fprintf(&sb, "- Stars: %d\n", collected.Stars)
	fmt.Fprintf(&sb, "- Forks: %d\n", collected.Forks)
	fmt.Fprintf(&sb, "- Project Age: %s\n", collected.ProjectAge)
	fmt.Fprintf(&sb, "- Total Commits: %s\n", collected.TotalCommits)
	fmt.Fprintf(&sb, "- Topics: %s\n", topics)
	sb.WriteString(BuildContext(collected.ImportantFiles))
	sb.WriteString(`
Please provide:
- A comprehensive summary of the repo's purpose, main functionality, and key characteristics based on all available information
- List exactly 4 main key features with descriptions
- Main technologies and frameworks used (extracted from configuration files when available)
- Exactly 4 potential real-world use cases for this code

Be specific, accurate, and focus on the most important aspects. Use information from README files, package.json, requirements.txt, pom.xml, and other configuration files to provide more accurate insights.`)
	return sb.String()
}

// languageBreakdown lists languages by byte count, largest first.
func languageBreakdown(langs map[string]int) string {
	if len(langs) == 0 {
		return ""
	}
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	return strings.Join(names, ", ")
}
