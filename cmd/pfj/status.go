package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/store"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the import status and audit rollups",
	Long: `Show which games are imported, their verdicts and the summed audit.

Without a selection every season is summarized. --game, --date and
--season narrow the listing and print the audit of that game, date or
season from the rollup views.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().String("game", "", "show one game")
	statusCmd.Flags().String("date", "", "show the games of a date (YYYY-MM-DD)")
	statusCmd.Flags().Int("season", 0, "show the games of a season")
	statusCmd.Flags().String("verdict", "", "only list games with this verdict")
}

func runStatus(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	gameID, _ := cmd.Flags().GetString("game")
	date, _ := cmd.Flags().GetString("date")
	season, _ := cmd.Flags().GetInt("season")
	verdict, _ := cmd.Flags().GetString("verdict")

	if gameID != "" {
		game, err := ids.ParseGameID(gameID)
		if err != nil {
			return err
		}
		gameID = game.String()
	}

	db, _, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	statuses, err := db.ListGameStatus(store.StatusFilter{GameID: gameID, Date: date, Season: season, Verdict: verdict})
	if err != nil {
		return err
	}

	switch {
	case gameID != "":
		if len(statuses) == 0 {
			util.WarnLog("Game %s has not been imported. Run 'pfj combine --game %s' first.", gameID, gameID)
			return nil
		}
		row, err := db.GameAudit(gameID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Game %s (%s), %d pitch apps\n", row.BBRefGameID, row.GameDate, row.PitchApps)
		printCounts(out, row.AuditCounts)
	case date != "":
		row, err := db.DateAudit(date)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Date %s: %d games, %d pitch apps\n", row.GameDate, row.Games, row.PitchApps)
		printCounts(out, row.AuditCounts)
	case season != 0:
		row, err := db.SeasonAudit(season)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Season %d: %s games, %s pitch apps\n", row.Season,
			humanize.Comma(int64(row.Games)), humanize.Comma(int64(row.PitchApps)))
		printCounts(out, row.AuditCounts)
	default:
		seasons, err := db.SeasonAudits()
		if err != nil {
			return err
		}
		if len(seasons) == 0 {
			util.WarnLog("No games imported. Run 'pfj combine' first.")
			return nil
		}
		fmt.Fprintf(out, "%-8s %8s %12s %12s %10s %8s %8s %8s\n",
			"Season", "Games", "Pitches", "PitchFX", "Missing", "Extra", "Invalid", "Patched")
		for _, s := range seasons {
			fmt.Fprintf(out, "%-8d %8s %12s %12s %10s %8s %8s %8s\n", s.Season,
				humanize.Comma(int64(s.Games)),
				humanize.Comma(int64(s.PitchCountBBRef)),
				humanize.Comma(int64(s.PitchCountPitchFx)),
				humanize.Comma(int64(s.MissingPitchFxCount)),
				humanize.Comma(int64(s.ExtraPitchFxCount)),
				humanize.Comma(int64(s.InvalidPitchFxCount)),
				humanize.Comma(int64(s.PatchedPitchFxCount)))
		}
		counts, err := db.VerdictCounts()
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		for _, v := range []model.Classification{
			model.ClassComplete, model.ClassPatched, model.ClassMissing,
			model.ClassExtra, model.ClassError, model.ClassInvalid,
		} {
			if n := counts[string(v)]; n > 0 {
				fmt.Fprintf(out, "%-16s %s\n", v, humanize.Comma(int64(n)))
			}
		}
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-14s %-10s %-10s %-7s %s\n", "Game", "Date", "Verdict", "Patch", "Imported")
	for _, st := range statuses {
		patchVersion := "-"
		if st.PatchListVersion > 0 {
			patchVersion = fmt.Sprintf("v%d", st.PatchListVersion)
		}
		fmt.Fprintf(out, "%-14s %-10s %-10s %-7s %s\n",
			st.BBRefGameID, st.GameDate, st.Verdict, patchVersion, humanize.Time(st.ImportedAt))
	}
	return nil
}

func printCounts(w io.Writer, c model.AuditCounts) {
	values := c.Values()
	for i, name := range model.AuditCountColumns {
		fmt.Fprintf(w, "  %-38s %s\n", name, humanize.Comma(int64(values[i])))
	}
}
