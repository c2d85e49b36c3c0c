package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var showCmd = &cobra.Command{
	Use:   "show GAME_ID",
	Short: "Print the combined record of an imported game",
	Long: `Print the combined record of a game from the audit database.

--section narrows the output:
- audit:   the game audit with its verdict and at-bat id lists
- innings: every half inning with its at-bats and pitches
- invalid: tracked at-bats that matched no play-by-play at-bat
- removed: pitches dropped as duplicates or removable extras
- all:     the whole record (default)`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().String("format", "json", "output format: json or yaml")
	showCmd.Flags().String("section", "all", "section to print: audit, innings, invalid, removed or all")
}

func runShow(cmd *cobra.Command, args []string) error {
	applyLogFlags()

	format, _ := cmd.Flags().GetString("format")
	section, _ := cmd.Flags().GetString("section")

	game, err := ids.ParseGameID(args[0])
	if err != nil {
		return err
	}

	db, _, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	g, err := db.LoadCombinedGame(game.String())
	if err != nil {
		return err
	}

	v, err := selectSection(g, section)
	if err != nil {
		return err
	}
	return writeFormatted(cmd.OutOrStdout(), v, format)
}

func selectSection(g *model.CombinedGame, section string) (interface{}, error) {
	switch section {
	case "", "all":
		return g, nil
	case "audit":
		return g.Audit, nil
	case "innings":
		return g.Innings, nil
	case "invalid":
		return g.InvalidPitchFx, nil
	case "removed":
		return g.RemovedPitchFx, nil
	default:
		return nil, fmt.Errorf("%w: unknown section %q", util.ErrInvalidConfig, section)
	}
}

// writeFormatted prints v as indented JSON, or as YAML with the same keys
func writeFormatted(w io.Writer, v interface{}, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}

	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		// JSON is YAML; decoding into a node keeps the key order
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to convert to yaml: %w", err)
		}
		blockStyle(&doc)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q", util.ErrInvalidConfig, format)
	}
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
