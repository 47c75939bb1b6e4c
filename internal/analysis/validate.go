// internal/analysis/validate.go
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"

	"repo-insights/internal/model"
)

const (
	MaxFeatures     = 4
	MaxUseCases     = 4
	MaxTechnologies = 8

	defaultSummary            = "This project appears to be a software application with various features and capabilities."
	defaultFeatureTitle       = "Feature"
	defaultFeatureDescription = "A key feature of this project."
	defaultUseCaseTitle       = "Use Case"
	defaultUseCaseDescription = "A potential application for this project."
)

var errNotAnObject = errors.New("analysis response is not a JSON object")

// ValidateJSON decodes a model response and normalizes it. It fails only when
// the payload is not a JSON object.
func ValidateJSON(data []byte) (model.StructuredAnalysis, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.StructuredAnalysis{}, fmt.Errorf("%w: %v", errNotAnObject, err)
	}
	if raw == nil {
		return model.StructuredAnalysis{}, errNotAnObject
	}
	return Validate(raw), nil
}

// Validate enforces the shape of an analysis. Missing or malformed values are
// replaced with placeholders; lists are truncated but never padded.
func Validate(raw map[string]any) model.StructuredAnalysis {
	summary, _ := raw["summary"].(string)
	if summary == "" {
		summary = defaultSummary
	}

	return model.StructuredAnalysis{
		Summary:      summary,
		KeyFeatures:  features(raw["keyFeatures"], MaxFeatures, defaultFeatureTitle, defaultFeatureDescription),
		Technologies: technologies(raw["technologies"]),
		UseCases:     features(raw["useCases"], MaxUseCases, defaultUseCaseTitle, defaultUseCaseDescription),
	}
}

func features(v any, limit int, title, description string) []model.Feature {
	items, _ := v.([]any)
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]model.Feature, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		f := model.Feature{Title: title, Description: description}
		if s, ok := obj["title"].(string); ok && s != "" {
			f.Title = s
		}
		if s, ok := obj["description"].(string); ok && s != "" {
			f.Description = s
		}
		out = append(out, f)
	}
	return out
}

func technologies(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, MaxTechnologies)
	for _, item := range items {
		if len(out) == MaxTechnologies {
			break
		}
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fallback is the static analysis used when no model response is available.
func Fallback(ref model.RepoRef) model.StructuredAnalysis {
	return model.StructuredAnalysis{
		Summary: fmt.Sprintf("This is a GitHub repository (%s/%s) that contains software code and documentation. "+
			"The repository appears to be a software project with various features and capabilities.", ref.Owner, ref.Repo),
		KeyFeatures: []model.Feature{
			{Title: "Source Code Management", Description: "Contains organized source code files and project structure"},
			{Title: "Documentation", Description: "Includes README files and project documentation for easy understanding"},
			{Title: "Version Control", Description: "Git-based version control for collaborative development"},
			{Title: "Project Structure", Description: "Well-organized project structure with configuration files"},
		},
		Technologies: []string{"Git", "Markdown", "Various programming languages", "Configuration files"},
		UseCases: []model.Feature{
			{Title: "Software Development", Description: "Source code management and collaborative development workflows"},
			{Title: "Project Documentation", Description: "Documentation and project information sharing for teams"},
			{Title: "Code Review", Description: "Version control and code review processes"},
			{Title: "Collaborative Work", Description: "Team collaboration and code sharing across developers"},
		},
	}
}
