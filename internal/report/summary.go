package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/store"
)

// Game outcome statuses
const (
	StatusImported = "imported"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
)

// GameOutcome is what happened to one game in a run
type GameOutcome struct {
	GameID         string        `yaml:"game_id"`
	Status         string        `yaml:"status"`
	Verdict        string        `yaml:"verdict,omitempty"`
	Attempts       int           `yaml:"attempts,omitempty"`
	PatchesApplied int           `yaml:"patches_applied,omitempty"`
	InvalidMatched int           `yaml:"invalid_matched,omitempty"`
	Duration       time.Duration `yaml:"duration,omitempty"`
	Error          string        `yaml:"error,omitempty"`
}

// RunReport summarizes a combine run, or the whole store when built
// without outcomes
type RunReport struct {
	RunID       string        `yaml:"run_id,omitempty"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Duration    time.Duration `yaml:"duration,omitempty"`

	GamesImported int `yaml:"games_imported"`
	GamesFailed   int `yaml:"games_failed"`
	GamesSkipped  int `yaml:"games_skipped"`

	VerdictCounts map[string]int         `yaml:"verdict_counts"`
	Seasons       []store.SeasonAuditRow `yaml:"seasons"`
	Games         []GameOutcome          `yaml:"games"`
	TopErrors     []ErrorSummary         `yaml:"top_errors,omitempty"`

	DataDir      string `yaml:"data_dir,omitempty"`
	DatabasePath string `yaml:"database_path,omitempty"`
	EventLogPath string `yaml:"event_log_path,omitempty"`
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string `yaml:"error"`
	Count int    `yaml:"count"`
}

// GenerateRunReport builds a report from the audit store. outcomes lists
// the games of a run; when nil every imported game is listed instead.
func GenerateRunReport(db *store.Store, runID string, outcomes []GameOutcome) (*RunReport, error) {
	report := &RunReport{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Games:       make([]GameOutcome, 0),
		TopErrors:   make([]ErrorSummary, 0),
	}

	if outcomes == nil {
		statuses, err := db.ListGameStatus(store.StatusFilter{})
		if err != nil {
			return nil, err
		}
		for _, st := range statuses {
			outcomes = append(outcomes, GameOutcome{
				GameID:  st.BBRefGameID,
				Status:  StatusImported,
				Verdict: st.Verdict,
			})
		}
	}
	report.Games = append(report.Games, outcomes...)

	for _, o := range outcomes {
		switch o.Status {
		case StatusImported:
			report.GamesImported++
		case StatusFailed:
			report.GamesFailed++
		case StatusSkipped:
			report.GamesSkipped++
		}
	}

	verdicts, err := db.VerdictCounts()
	if err != nil {
		return nil, err
	}
	report.VerdictCounts = verdicts

	seasons, err := db.SeasonAudits()
	if err != nil {
		return nil, err
	}
	report.Seasons = seasons

	report.TopErrors = gatherTopErrors(outcomes, 10)
	return report, nil
}

// gatherTopErrors counts the most common game errors
func gatherTopErrors(outcomes []GameOutcome, limit int) []ErrorSummary {
	counts := make(map[string]int)
	for _, o := range outcomes {
		if o.Error != "" {
			counts[o.Error]++
		}
	}

	errs := make([]ErrorSummary, 0, len(counts))
	for msg, count := range counts {
		errs = append(errs, ErrorSummary{Error: msg, Count: count})
	}

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Count != errs[j].Count {
			return errs[i].Count > errs[j].Count
		}
		return errs[i].Error < errs[j].Error
	})

	if len(errs) > limit {
		errs = errs[:limit]
	}
	return errs
}

// needsAttention reports whether a game outcome should be listed in the
// markdown report
func needsAttention(o GameOutcome) bool {
	if o.Status != StatusImported {
		return true
	}
	return o.Verdict != string(model.ClassComplete) && o.Verdict != string(model.ClassPatched)
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

// WriteMarkdownReport writes the run report as Markdown
func WriteMarkdownReport(report *RunReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# PitchFX Janitor - Audit Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", report.RunID))
	}
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	// Overview
	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Games Imported | %s |\n", comma(report.GamesImported)))
	if report.GamesFailed > 0 {
		md.WriteString(fmt.Sprintf("| Games Failed | %s |\n", comma(report.GamesFailed)))
	}
	if report.GamesSkipped > 0 {
		md.WriteString(fmt.Sprintf("| Games Skipped | %s |\n", comma(report.GamesSkipped)))
	}
	if report.Duration > 0 {
		md.WriteString(fmt.Sprintf("| Run Time | %s |\n", report.Duration.Round(time.Second)))
	}
	md.WriteString("\n")

	// Verdicts
	if len(report.VerdictCounts) > 0 {
		md.WriteString("## ⚖️ Verdicts\n\n")
		md.WriteString("| Verdict | Games |\n")
		md.WriteString("|---------|-------|\n")
		verdicts := make([]string, 0, len(report.VerdictCounts))
		for v := range report.VerdictCounts {
			verdicts = append(verdicts, v)
		}
		sort.Strings(verdicts)
		for _, v := range verdicts {
			md.WriteString(fmt.Sprintf("| %s | %s |\n", v, comma(report.VerdictCounts[v])))
		}
		md.WriteString("\n")
	}

	// Seasons
	if len(report.Seasons) > 0 {
		md.WriteString("## 📅 Seasons\n\n")
		md.WriteString("| Season | Games | Pitches (bbref) | Pitches (pfx) | Missing | Extra | Invalid | Patched |\n")
		md.WriteString("|--------|-------|-----------------|---------------|---------|-------|---------|---------|\n")
		for _, s := range report.Seasons {
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
				s.Season,
				comma(s.Games),
				comma(s.PitchCountBBRef),
				comma(s.PitchCountPitchFx),
				comma(s.MissingPitchFxCount),
				comma(s.ExtraPitchFxCount),
				comma(s.InvalidPitchFxCount),
				comma(s.PatchedPitchFxCount)))
		}
		md.WriteString("\n")
	}

	// Games that need a look
	var attention []GameOutcome
	for _, g := range report.Games {
		if needsAttention(g) {
			attention = append(attention, g)
		}
	}
	if len(attention) > 0 {
		md.WriteString("## 🔍 Games Needing Review\n\n")
		md.WriteString("| Game | Status | Verdict | Attempts | Error |\n")
		md.WriteString("|------|--------|---------|----------|-------|\n")
		for _, g := range attention {
			md.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
				g.GameID, g.Status, g.Verdict, g.Attempts, truncate(g.Error, 80)))
		}
		md.WriteString("\n")
	}

	// Errors
	if len(report.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, err := range report.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", err.Count, err.Error))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by pfj - PitchFX Janitor*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// WriteYAMLReport writes the run report as YAML
func WriteYAMLReport(report *RunReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// truncate shortens a message to at most maxLen bytes
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
