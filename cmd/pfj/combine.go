package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/pitchfx-janitor/internal/gamedata"
	"github.com/franz/pitchfx-janitor/internal/metrics"
	"github.com/franz/pitchfx-janitor/internal/registry"
	"github.com/franz/pitchfx-janitor/internal/report"
	"github.com/franz/pitchfx-janitor/internal/runner"
	"github.com/franz/pitchfx-janitor/internal/store"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Combine games and import their audits",
	Long: `Combine the boxscore and PitchFX logs of each selected game.

For every game:
1. The stored patch list is applied to the PitchFX logs
2. Every at-bat is classified against the play-by-play table
3. Invalid at-bats are matched to at-bats missing their pitches, and the
   game is combined again with the new patches (up to --rematch-limit times)
4. The combined record is written to <data>/combined and its audit is
   imported into the database in one transaction

Games are selected with --game, --date or --season; without a selection
every game in the data directory is combined. One failing game never
stops the run. Interrupting the run lets started games finish.`,
	RunE: runCombine,
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().StringSlice("game", nil, "game id to combine (repeatable)")
	combineCmd.Flags().String("date", "", "combine the games played on a date (YYYY-MM-DD)")
	combineCmd.Flags().Int("season", 0, "combine the games of a season")
	combineCmd.Flags().Bool("no-patch", false, "ignore stored patch lists and do not run the matcher")
	combineCmd.Flags().Int("rematch-limit", util.DefaultRematchLimit, "how often the matcher may rerun for one game")
	combineCmd.Flags().IntP("concurrency", "c", 0, "games combined in parallel (default: number of CPUs)")
	combineCmd.Flags().String("metrics-file", "", "write run metrics to this Prometheus textfile")
	combineCmd.Flags().String("event-level", "", "minimum event log level (debug, info, warning, error)")

	viper.BindPFlag("no-patch", combineCmd.Flags().Lookup("no-patch"))
	viper.BindPFlag("rematch-limit", combineCmd.Flags().Lookup("rematch-limit"))
	viper.BindPFlag("concurrency", combineCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("metrics-file", combineCmd.Flags().Lookup("metrics-file"))
	viper.BindPFlag("event-level", combineCmd.Flags().Lookup("event-level"))
}

// debugSink logs reconcile progress of each game at debug level
type debugSink struct{}

func (debugSink) GameProgress(gameID string, percent float64) {
	util.DebugLog("%s: %.0f%%", gameID, percent)
}

func runCombine(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applyLogFlags()

	games, _ := cmd.Flags().GetStringSlice("game")
	date, _ := cmd.Flags().GetString("date")
	season, _ := cmd.Flags().GetInt("season")
	sel := gamedata.Selection{GameIDs: games, Date: date, Season: season}

	concurrency := GetConfigInt("concurrency", runtime.NumCPU())
	data := dataDir()
	if _, err := os.Stat(data.Root()); os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s", data.Root())
	}

	dbPath := GetConfigString("db", "pfj-state.db")
	util.InfoLog("Opening database: %s", dbPath)
	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{BulkImport: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	players := registry.New(db.DB(), registry.DefaultTTL)
	if err := players.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to prepare player registry: %w", err)
	}
	if _, err := os.Stat(data.PlayersPath()); err == nil {
		n, err := players.ImportFile(data.PlayersPath())
		if err != nil {
			return fmt.Errorf("failed to import players: %w", err)
		}
		util.InfoLog("Loaded %d players from %s", n, data.PlayersPath())
	}

	runID := uuid.NewString()
	logger, err := report.NewEventLogger("artifacts", eventLevel(), runID)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	runMetrics, err := metrics.NewRunMetrics(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	r := runner.New(&runner.Config{
		Data:            data,
		Store:           db,
		Players:         players,
		Metrics:         runMetrics,
		Logger:          logger,
		Sink:            debugSink{},
		Concurrency:     concurrency,
		DisablePatching: !util.PatchingEnabled(),
		RematchLimit:    util.RematchLimit(),
		RunID:           runID,
	})

	result, runErr := r.Run(ctx, sel)
	if result == nil {
		return fmt.Errorf("combine failed: %w", runErr)
	}

	printCombineSummary(result)

	if path := GetConfigString("metrics-file", ""); path != "" {
		if err := runMetrics.WriteTextfile(path); err != nil {
			util.WarnLog("%v", err)
		} else {
			util.InfoLog("Metrics: %s", path)
		}
	}

	if err := writeRunReport(db, result, dbPath, data.Root(), logger.Path()); err != nil {
		util.WarnLog("Failed to write run report: %v", err)
	}

	if runErr != nil {
		return runErr
	}
	if ctx.Err() != nil {
		util.WarnLog("Interrupted: %d games were not started", result.Skipped)
	}
	return nil
}

func printCombineSummary(result *runner.Result) {
	verdicts := make(map[string]int)
	for _, o := range result.Outcomes {
		if o.Status == report.StatusImported {
			verdicts[o.Verdict]++
		}
	}
	names := make([]string, 0, len(verdicts))
	for v := range verdicts {
		names = append(names, v)
	}
	sort.Strings(names)

	util.InfoLog("")
	util.SuccessLog("=== Combine Summary ===")
	util.InfoLog("Run: %s", result.RunID)
	util.InfoLog("Total time: %v", result.Duration.Round(time.Millisecond))
	util.InfoLog("  Games imported: %s", humanize.Comma(int64(result.Imported)))
	for _, v := range names {
		util.InfoLog("    %-16s %s", v, humanize.Comma(int64(verdicts[v])))
	}
	if result.Failed > 0 {
		util.WarnLog("  Games failed: %d", result.Failed)
	}
	if result.Skipped > 0 {
		util.WarnLog("  Games skipped: %d", result.Skipped)
	}
}

func writeRunReport(db *store.Store, result *runner.Result, dbPath, dataPath, eventLog string) error {
	runReport, err := report.GenerateRunReport(db, result.RunID, result.Outcomes)
	if err != nil {
		return err
	}
	runReport.Duration = result.Duration
	runReport.DatabasePath = dbPath
	runReport.DataDir = dataPath
	runReport.EventLogPath = eventLog

	outputDir := filepath.Join("artifacts", "reports", time.Now().Format("20060102-150405"))
	if err := report.WriteMarkdownReport(runReport, filepath.Join(outputDir, "summary.md")); err != nil {
		return err
	}
	if err := report.WriteYAMLReport(runReport, filepath.Join(outputDir, "summary.yaml")); err != nil {
		return err
	}
	util.InfoLog("Report: %s", outputDir)
	return nil
}
