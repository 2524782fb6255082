// Package cli provides output formatting for the dagit command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/takeru911/dagster/internal/models"
	"github.com/takeru911/dagster/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteSearchResults writes a search response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	loading := ""
	if response.Loading {
		loading = " (index fetch still in flight, results may be partial)"
	}
	fmt.Fprintf(w, "\nFound %d results in %dms%s\n\n", len(response.Results), response.QueryTime, loading)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result models.ScoredRecord) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%s] %s | Score: %.4f\n", result.Type, result.Label, result.Score)
	if result.Description != "" {
		fmt.Fprintf(w, "%s\n", result.Description)
	}
	fmt.Fprintf(w, "→ %s\n", result.Href)
	for field, fragments := range result.Matches {
		for _, frag := range fragments {
			fmt.Fprintf(w, "  %s: %s\n", field, utils.Truncate(stripHighlightTags(frag), 120))
		}
	}
	fmt.Fprintln(w)
}

// stripHighlightTags removes the <mark> markers the highlighter wraps
// around matched terms.
func stripHighlightTags(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "")
	return strings.ReplaceAll(s, "</mark>", "")
}

// WriteScheduleRows writes a schedule listing to w in the given format.
func WriteScheduleRows(w io.Writer, list *models.ScheduleList, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	default:
		writeScheduleRowsText(w, list, time.Now())
		return nil
	}
}

func writeScheduleRowsText(w io.Writer, list *models.ScheduleList, now time.Time) {
	if len(list.Schedules) == 0 {
		fmt.Fprintln(w, "No schedules in the workspace snapshot.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEDULE\tREPOSITORY\tCRON\tTARGET\tSTATUS\tLAST TICK\tNEXT TICK")
	for _, row := range list.Schedules {
		status := "-"
		if row.Loaded {
			status = string(row.Status)
		}
		lastTick := "-"
		if row.LatestTick != nil {
			lastTick = fmt.Sprintf("%s %s", row.LatestTick.Status, relativeTime(row.LatestTick.Timestamp, now))
		}
		nextTick := "-"
		if row.NextTick != nil {
			nextTick = relativeTime(*row.NextTick, now)
		}
		target := row.TargetName
		if target != "" && row.TargetKind != "" {
			target = fmt.Sprintf("%s (%s)", row.TargetName, row.TargetKind)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Name,
			row.Selector.RepoAddress().String(),
			row.CronText,
			target,
			status,
			lastTick,
			nextTick,
		)
	}
	_ = tw.Flush()
	if !list.FetchedAt.IsZero() {
		fmt.Fprintf(w, "\nWorkspace snapshot from %s\n", relativeTime(list.FetchedAt, now))
	}
}

// WriteStatus writes a status report to w in the given format.
func WriteStatus(w io.Writer, report *models.StatusReport, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		writeStatusText(w, report)
		return nil
	}
}

func writeStatusText(w io.Writer, report *models.StatusReport) {
	writeIndexStatus(w, "Bootstrap index", report.Bootstrap)
	writeIndexStatus(w, "Secondary index", report.Secondary)
	fmt.Fprintf(w, "Loading: %v\n", report.Loading)
	fmt.Fprintf(w, "Active schedule watchers: %d\n", report.ActiveWatchers)
	if report.CacheBytes > 0 {
		fmt.Fprintf(w, "Snapshot cache: %d bytes\n", report.CacheBytes)
	}
	if report.Version != "" {
		fmt.Fprintf(w, "Upstream version: %s\n", report.Version)
	}
}

func writeIndexStatus(w io.Writer, name string, st models.IndexStatus) {
	fmt.Fprintf(w, "%s: %s", name, st.State)
	if st.Records > 0 {
		fmt.Fprintf(w, " (%d records)", st.Records)
	}
	if st.Stale {
		fmt.Fprint(w, " [stale cache]")
	}
	fmt.Fprintln(w)
}

// relativeTime renders t relative to now: "5m ago" for the past, "in 5m"
// for the future, "-" for the zero time.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	if d < 0 {
		return "in " + shortDuration(-d)
	}
	return shortDuration(d) + " ago"
}

func shortDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
