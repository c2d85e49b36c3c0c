package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franz/pitchfx-janitor/internal/registry"
	"github.com/franz/pitchfx-janitor/internal/store"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Manage the player id registry",
	Long: `The player registry maps MLB ids to baseball-reference ids and names.
It is filled from every combined boxscore and can be seeded from a
players.json file (bbref id -> {name, mlb_id, team_id_br}).`,
}

var playersImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import players from a players.json file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlayersImport,
}

var playersLookupCmd = &cobra.Command{
	Use:   "lookup ID",
	Short: "Look up a player by MLB id or baseball-reference id",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlayersLookup,
}

func init() {
	rootCmd.AddCommand(playersCmd)
	playersCmd.AddCommand(playersImportCmd)
	playersCmd.AddCommand(playersLookupCmd)
}

func openRegistry() (*store.Store, *registry.Registry, error) {
	db, _, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	players := registry.New(db.DB(), registry.DefaultTTL)
	if err := players.EnsureSchema(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to prepare player registry: %w", err)
	}
	return db, players, nil
}

func runPlayersImport(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	db, players, err := openRegistry()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := players.ImportFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}
	total, err := players.Count()
	if err != nil {
		return err
	}
	util.SuccessLog("Imported %d players (%d in registry)", n, total)
	return nil
}

func runPlayersLookup(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	db, players, err := openRegistry()
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if mlbID, convErr := strconv.Atoi(args[0]); convErr == nil {
		bbrefID, info, err := players.PlayerByMLBID(mlbID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%d\t%s\t%s\n", bbrefID, info.MLBID, info.Name, info.TeamIDBR)
		return nil
	}

	p, err := players.PlayerByBBRefID(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%d\t%s\t%s\n", p.BBRefID, p.MLBID, p.Name, p.TeamIDBR)
	return nil
}
