// internal/github/analytics.go
package github

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"repo-insights/internal/model"
)

const yearLength = 365.25 * 24 * time.Hour

// projectAgeLabel renders the repository age in whole years.
func projectAgeLabel(created, now time.Time) string {
	years := int(math.Floor(float64(now.Sub(created)) / float64(yearLength)))
	switch {
	case years <= 0:
		return "Less than 1 year"
	case years == 1:
		return "1 year"
	default:
		return fmt.Sprintf("%d years", years)
	}
}

// buildTimeline keeps one event per calendar year, first occurrence winning,
// sorted by year ascending.
func buildTimeline(created, updated, pushed time.Time) []model.TimelineEvent {
	candidates := []model.TimelineEvent{
		{Date: yearOf(created), Event: "Project Created"},
		{Date: yearOf(updated), Event: "Last Updated"},
		{Date: yearOf(pushed), Event: "Last Commit"},
	}

	seen := make(map[string]bool, len(candidates))
	timeline := make([]model.TimelineEvent, 0, len(candidates))
	for _, ev := range candidates {
		if seen[ev.Date] {
			continue
		}
		seen[ev.Date] = true
		timeline = append(timeline, ev)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		a, _ := strconv.Atoi(timeline[i].Date)
		b, _ := strconv.Atoi(timeline[j].Date)
		return a < b
	})
	return timeline
}

func yearOf(t time.Time) string {
	return fmt.Sprintf("%04d", t.UTC().Year())
}
