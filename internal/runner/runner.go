// Package runner combines many games in parallel: load, patch, reconcile,
// rematch invalid at-bats, export and import into the audit store.
package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/franz/pitchfx-janitor/internal/gamedata"
	"github.com/franz/pitchfx-janitor/internal/metrics"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/patch"
	"github.com/franz/pitchfx-janitor/internal/reconcile"
	"github.com/franz/pitchfx-janitor/internal/registry"
	"github.com/franz/pitchfx-janitor/internal/report"
	"github.com/franz/pitchfx-janitor/internal/store"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// Runner combines the games of a data directory
type Runner struct {
	data         *gamedata.Dir
	store        *store.Store
	players      *registry.Registry
	metrics      *metrics.RunMetrics
	logger       *report.EventLogger
	sink         reconcile.ProgressSink
	concurrency  int
	patching     bool
	rematchLimit int
	runID        string
}

// Config holds runner configuration
type Config struct {
	Data    *gamedata.Dir
	Store   *store.Store
	Players *registry.Registry  // optional
	Metrics *metrics.RunMetrics // optional
	Logger  *report.EventLogger
	Sink    reconcile.ProgressSink // optional, per game progress

	Concurrency     int
	DisablePatching bool
	RematchLimit    int
	RunID           string
}

// New creates a new Runner
func New(cfg *Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RematchLimit <= 0 {
		cfg.RematchLimit = util.DefaultRematchLimit
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = report.NullLogger()
	}

	return &Runner{
		data:         cfg.Data,
		store:        cfg.Store,
		players:      cfg.Players,
		metrics:      cfg.Metrics,
		logger:       logger,
		sink:         cfg.Sink,
		concurrency:  cfg.Concurrency,
		patching:     !cfg.DisablePatching,
		rematchLimit: cfg.RematchLimit,
		runID:        cfg.RunID,
	}
}

// RunID returns the id stamped on this run's events and report
func (r *Runner) RunID() string { return r.runID }

// Result represents the outcome of a combine run
type Result struct {
	RunID    string
	Outcomes []report.GameOutcome // in discovery order
	Imported int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Run combines every game the selection names. A failing game is recorded
// in its outcome and never stops the run; a store error that survives the
// retries cancels the games not yet started and is returned.
func (r *Runner) Run(ctx context.Context, sel gamedata.Selection) (*Result, error) {
	start := time.Now()

	games, err := r.data.Discover(sel)
	if err != nil {
		return nil, fmt.Errorf("failed to discover games: %w", err)
	}
	util.InfoLog("Combining %d games (concurrency %d, patching %t)", len(games), r.concurrency, r.patching)

	result := &Result{
		RunID:    r.runID,
		Outcomes: make([]report.GameOutcome, len(games)),
	}

	var gamesDone atomic.Int64
	var gamesFailed atomic.Int64
	var gamesSkipped atomic.Int64

	stopProgress := r.startProgress(ctx, len(games), &gamesDone, &gamesFailed, &gamesSkipped)

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(r.concurrency)

	for i, gameID := range games {
		p.Go(func(ctx context.Context) error {
			defer gamesDone.Add(1)

			// Cancellation is only honored before a game starts
			if err := ctx.Err(); err != nil {
				gamesSkipped.Add(1)
				result.Outcomes[i] = r.skip(gameID, err)
				return nil
			}

			outcome, err := r.CombineGame(gameID)
			result.Outcomes[i] = outcome
			if outcome.Status == report.StatusFailed {
				gamesFailed.Add(1)
			}
			return err
		})
	}
	runErr := p.Wait()

	stopProgress()

	for _, o := range result.Outcomes {
		switch o.Status {
		case report.StatusImported:
			result.Imported++
		case report.StatusFailed:
			result.Failed++
		case report.StatusSkipped:
			result.Skipped++
		}
	}
	result.Duration = time.Since(start)

	if r.metrics != nil {
		r.metrics.MarkRunFinished()
	}

	if runErr != nil {
		r.logger.LogError(report.EventCombine, "", runErr)
		util.ErrorLog("Combine aborted: %v", runErr)
		return result, fmt.Errorf("combine aborted: %w", runErr)
	}

	util.SuccessLog("Combine complete: %d imported, %d failed, %d skipped in %s",
		result.Imported, result.Failed, result.Skipped, result.Duration.Round(time.Millisecond))

	return result, nil
}

// startProgress draws a progress bar on a terminal, or logs progress
// periodically otherwise. The returned func stops it and waits for it.
func (r *Runner) startProgress(ctx context.Context, total int, done, failed, skipped *atomic.Int64) func() {
	progressCtx, cancelProgress := context.WithCancel(ctx)

	var bar *progressbar.ProgressBar
	if util.ShowProgress() {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Combining"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("games"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		var last int64
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				n := done.Load()
				if bar != nil {
					bar.Describe(fmt.Sprintf("Combining | %d failed | %d skipped", failed.Load(), skipped.Load()))
					bar.Set64(n)
				} else if n != last {
					util.InfoLog("Progress: %d/%d games (failed: %d, skipped: %d)",
						n, total, failed.Load(), skipped.Load())
				}
				last = n
			}
		}
	}()

	return func() {
		cancelProgress()
		wg.Wait()
		if bar != nil {
			bar.Finish()
		}
	}
}

func (r *Runner) skip(gameID string, cause error) report.GameOutcome {
	r.logger.LogSkip(gameID, cause.Error())
	if r.metrics != nil {
		r.metrics.GamesTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
	}
	return report.GameOutcome{GameID: gameID, Status: report.StatusSkipped, Error: cause.Error()}
}

// fail records a failed game. The game's error stays in its outcome.
func (r *Runner) fail(out report.GameOutcome, start time.Time, cause error) (report.GameOutcome, error) {
	out.Status = report.StatusFailed
	out.Error = cause.Error()
	out.Duration = time.Since(start)
	util.ErrorLog("%s: %v", out.GameID, cause)
	r.logger.LogCombine(out.GameID, "", out.Attempts, out.Duration, cause)
	if r.metrics != nil {
		r.metrics.RecordGame(metrics.OutcomeFailed, out.Duration)
	}
	return out, nil
}

// writeFiles exports an imported game and its merged patch list. A failed
// write leaves the import in place; rerunning the game rewrites both.
func (r *Runner) writeFiles(g *model.CombinedGame, list *patch.List, rematched bool) {
	if rematched {
		if err := r.data.SavePatchList(list); err != nil {
			util.WarnLog("%s: patch list not saved: %v", g.GameID, err)
			r.logger.LogError(report.EventPatch, g.GameID, err)
		}
	}
	if _, err := r.data.SaveCombined(g); err != nil {
		util.WarnLog("%s: combined record not exported: %v", g.GameID, err)
		r.logger.LogError(report.EventImport, g.GameID, err)
	}
}

// CombineGame runs one game through patching, reconciliation, rematching
// and import.
func (r *Runner) CombineGame(gameID string) (report.GameOutcome, error) {
	start := time.Now()
	out := report.GameOutcome{GameID: gameID}

	in, err := r.load(gameID)
	if err != nil {
		return r.fail(out, start, err)
	}
	box, logs, list := in.box, in.logs, in.list
	r.logger.LogGame(gameID, len(logs))

	engine, match, rec := r.pipeline()

	var (
		g         *model.CombinedGame
		rematched bool
	)
	for {
		out.Attempts++

		patched, err := engine.Apply(logs, list, box)
		if err != nil {
			return r.fail(out, start, err)
		}
		if !list.Empty() {
			r.logger.LogPatch(gameID, list.Version, len(list.Patches))
		}

		g, err = rec.Reconcile(reconcile.GameInput{Boxscore: *box, Logs: patched})
		if err != nil {
			return r.fail(out, start, err)
		}

		if !r.patching || out.Attempts > r.rematchLimit || len(g.InvalidAtBats()) == 0 {
			break
		}

		res := match.Match(g)
		for _, o := range res.Outcomes {
			r.logger.LogMatch(gameID, o.InvalidAtBatID, o.MatchedAtBatID, o.Patches, o.Err)
		}
		if res.Matched() == 0 {
			break
		}
		out.InvalidMatched += res.Matched()

		list = patch.Merge(list, res.List)
		rematched = true
		util.DebugLog("%s: matched %d invalid at-bats, patch list v%d", gameID, res.Matched(), list.Version)
	}
	out.Verdict = string(g.Audit.Verdict)

	version := 0
	if !list.Empty() {
		version = list.Version
		out.PatchesApplied = len(list.Patches)
	}

	// Files are written only once the import has committed
	path := r.data.CombinedPath(gameID)
	if err := r.store.SaveCombinedGame(g, path, version); err != nil {
		r.logger.LogImport(gameID, path, err)
		if errors.Is(err, util.ErrAuditMismatch) {
			return r.fail(out, start, err)
		}
		// The store is unusable once its retries are exhausted
		out, _ = r.fail(out, start, err)
		return out, errors.Wrapf(err, "import %s", gameID)
	}
	r.logger.LogImport(gameID, path, nil)
	r.writeFiles(g, list, rematched)

	out.Status = report.StatusImported
	out.Duration = time.Since(start)
	r.logger.LogCombine(gameID, out.Verdict, out.Attempts, out.Duration, nil)
	if r.metrics != nil {
		r.metrics.RecordGame(out.Verdict, out.Duration)
		r.metrics.RecordAtBats(g)
		r.metrics.RecordPatches(out.PatchesApplied, out.InvalidMatched)
	}
	util.DebugLog("%s: %s after %d attempt(s)", gameID, out.Verdict, out.Attempts)

	return out, nil
}
