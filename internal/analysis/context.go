// internal/analysis/context.go
package analysis

import (
	"fmt"
	"strings"

	"repo-insights/internal/model"
)

// contextSection describes how one important file is rendered into the prompt.
type contextSection struct {
	key    model.ImportantFileKey
	label  string
	budget int
}

var contextSections = []contextSection{
	{model.FileReadme, "README.md Content", 1000},
	{model.FilePackageJSON, "Package.json Content", 800},
	{model.FileContributing, "CONTRIBUTING.md Content", 600},
	{model.FileCIConfig, "CI/CD Configuration", 600},
	{model.FileRequirements, "Requirements.txt Content", 600},
	{model.FilePomXML, "POM.xml Content", 800},
	{model.FileGradle, "Gradle Configuration", 600},
	{model.FileCargo, "Cargo.toml Content", 600},
	{model.FileComposer, "Composer.json Content", 600},
	{model.FileGemfile, "Gemfile Content", 600},
	{model.FileGoMod, "Go.mod Content", 600},
	{model.FilePyproject, "PyProject.toml Content", 600},
}

// BuildContext renders the collected important files into a bounded text block.
func BuildContext(files model.ImportantFiles) string {
	var sb strings.Builder
	sb.WriteString("\nAdditional Repository Files Analysis:\n")

	var found []string
	for _, section := range contextSections {
		f := files[section.key]
		if f == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n%s (%s):\n%s\n", section.label, f.Path, truncate(f.Content, section.budget))
		found = append(found, f.Path)
	}

	if len(found) > 0 {
		fmt.Fprintf(&sb, "\nFound Configuration Files: %s\n", strings.Join(found, ", "))
	} else {
		sb.WriteString("\nNo additional configuration files found.\n")
	}
	return sb.String()
}

// truncate keeps at most budget runes and marks the cut with an ellipsis.
func truncate(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + "..."
}
