package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/registry"
	"github.com/franz/pitchfx-janitor/internal/runner"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var patchCmd = &cobra.Command{
	Use:   "patch GAME_ID",
	Short: "Propose a patch list for a game and show its effect on the audit",
	Long: `Run the invalid at-bat matcher on one game without importing anything.

The game is combined with its stored patch list, the matcher proposes
patches for the invalid at-bats, and the audit counters before and after
the proposal are printed side by side. With --write the merged patch list
is saved to <data>/patches; run 'pfj combine --game GAME_ID' afterwards to
import the patched game.`,
	Args: cobra.ExactArgs(1),
	RunE: runPatch,
}

func init() {
	rootCmd.AddCommand(patchCmd)

	patchCmd.Flags().Bool("write", false, "save the proposed patch list")
}

func runPatch(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	game, err := ids.ParseGameID(args[0])
	if err != nil {
		return err
	}
	gameID := game.String()

	db, _, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	players := registry.New(db.DB(), registry.DefaultTTL)
	if err := players.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to prepare player registry: %w", err)
	}

	r := runner.New(&runner.Config{
		Data:         dataDir(),
		Store:        db,
		Players:      players,
		RematchLimit: util.RematchLimit(),
	})

	prop, err := r.Propose(gameID)
	if err != nil {
		return fmt.Errorf("failed to combine %s: %w", gameID, err)
	}

	printProposal(cmd.OutOrStdout(), prop)

	write, _ := cmd.Flags().GetBool("write")
	if prop.List.Empty() {
		return nil
	}
	if !write {
		util.InfoLog("Dry run: use --write to save patch list v%d", prop.List.Version)
		return nil
	}
	if err := r.WritePatchList(prop); err != nil {
		return fmt.Errorf("failed to save patch list: %w", err)
	}
	util.SuccessLog("Saved patch list v%d (%d patches)", prop.List.Version, len(prop.List.Patches))
	return nil
}

func printProposal(w io.Writer, prop *runner.Proposal) {
	fmt.Fprintf(w, "Game: %s\n", prop.GameID)
	if prop.Stored.Empty() {
		fmt.Fprintln(w, "Stored patch list: none")
	} else {
		fmt.Fprintf(w, "Stored patch list: v%d (%d patches)\n", prop.Stored.Version, len(prop.Stored.Patches))
	}
	fmt.Fprintln(w)

	if len(prop.Outcomes) == 0 {
		fmt.Fprintln(w, "No invalid at-bats to match.")
		return
	}
	fmt.Fprintln(w, "Invalid at-bats:")
	for _, o := range prop.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "  ✗ %s: %v\n", o.InvalidAtBatID, o.Err)
			continue
		}
		fmt.Fprintf(w, "  ✓ %s → %s (%d patches)\n", o.InvalidAtBatID, o.MatchedAtBatID, o.Patches)
	}
	fmt.Fprintln(w)

	if prop.List.Empty() {
		fmt.Fprintln(w, "No patches proposed.")
		return
	}

	fmt.Fprintf(w, "Verdict: %s → %s\n", prop.Before.Verdict, prop.After.Verdict)
	changes := prop.Changes()
	if len(changes) == 0 {
		fmt.Fprintln(w, "Audit counters unchanged.")
		return
	}
	fmt.Fprintf(w, "%-38s %8s %8s %8s\n", "Counter", "Before", "After", "Diff")
	for _, c := range changes {
		fmt.Fprintf(w, "%-38s %8d %8d %+8d\n", c.Name, c.Before, c.After, c.After-c.Before)
	}
}
