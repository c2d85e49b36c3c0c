package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/pitchfx-janitor/internal/report"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an audit report from the database",
	Long: `Generate a summary report of every imported game.

The report includes:
- Games imported and their verdicts
- Audit counters summed per season
- Games that need a look (missing, extra, error or invalid verdicts)

The report is saved to artifacts/reports/<timestamp>/summary.md, next to
a summary.yaml with the same content.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "Output directory for report (default: artifacts/reports/<timestamp>)")
}

func runReport(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	util.InfoLog("=== Generating Audit Report ===")

	db, dbPath, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	util.InfoLog("Database: %s", dbPath)

	summaryReport, err := report.GenerateRunReport(db, "", nil)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	summaryReport.DatabasePath = dbPath
	summaryReport.DataDir = GetConfigString("data", "data")

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join("artifacts", "reports", timestamp)
	}

	outputPath := filepath.Join(outputDir, "summary.md")
	util.InfoLog("Writing report to: %s", outputPath)
	if err := report.WriteMarkdownReport(summaryReport, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := report.WriteYAMLReport(summaryReport, filepath.Join(outputDir, "summary.yaml")); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report generated successfully!")
	util.InfoLog("")
	util.InfoLog("Summary:")
	util.InfoLog("  Games imported: %s", humanize.Comma(int64(summaryReport.GamesImported)))
	for _, s := range summaryReport.Seasons {
		util.InfoLog("  %d: %s games, %s pitches missing PitchFX", s.Season,
			humanize.Comma(int64(s.Games)), humanize.Comma(int64(s.MissingPitchFxCount)))
	}

	return nil
}
