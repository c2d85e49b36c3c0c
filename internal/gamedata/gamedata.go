// Package gamedata reads and writes the local data directory:
//
//	boxscores/<game_id>.json
//	pitchfx/<game_id>/<pitch_app_id>.json
//	patches/<game_id>.json
//	combined/<game_id>.json
//	players.json
package gamedata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/patch"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// Subdirectories of the data directory
const (
	BoxscoreDir = "boxscores"
	PitchFxDir  = "pitchfx"
	PatchDir    = "patches"
	CombinedDir = "combined"
	PlayersFile = "players.json"
)

// Dir is a data directory
type Dir struct {
	root  string
	retry *util.RetryConfig
}

// Open returns the data directory at root. Nothing is created until a
// file is written.
func Open(root string) *Dir {
	return &Dir{root: root, retry: util.DefaultRetryConfig()}
}

// Root returns the directory path
func (d *Dir) Root() string { return d.root }

func (d *Dir) BoxscorePath(gameID string) string {
	return filepath.Join(d.root, BoxscoreDir, gameID+".json")
}

func (d *Dir) PitchFxPath(gameID, pitchAppID string) string {
	return filepath.Join(d.root, PitchFxDir, gameID, pitchAppID+".json")
}

func (d *Dir) PatchListPath(gameID string) string {
	return filepath.Join(d.root, PatchDir, gameID+".json")
}

func (d *Dir) CombinedPath(gameID string) string {
	return filepath.Join(d.root, CombinedDir, gameID+".json")
}

func (d *Dir) PlayersPath() string {
	return filepath.Join(d.root, PlayersFile)
}

func (d *Dir) readJSON(path string, v interface{}) error {
	data, err := util.RetryableReadFile(path, d.retry)
	if errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(util.ErrNotFound, "%s", path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func (d *Dir) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return util.RetryableWriteFile(path, append(data, '\n'), d.retry)
}

// LoadBoxscore reads the boxscore of a game
func (d *Dir) LoadBoxscore(gameID string) (*model.Boxscore, error) {
	var box model.Boxscore
	if err := d.readJSON(d.BoxscorePath(gameID), &box); err != nil {
		return nil, err
	}
	return &box, nil
}

// SaveBoxscore writes the boxscore of a game
func (d *Dir) SaveBoxscore(box *model.Boxscore) error {
	return d.writeJSON(d.BoxscorePath(box.BBRefGameID), box)
}

// LoadPitchFxLogs reads every pitch-app log of a game in pitch-app id
// order. A game without a pitchfx directory has no logs.
func (d *Dir) LoadPitchFxLogs(gameID string) ([]model.PitchFxLog, error) {
	dir := filepath.Join(d.root, PitchFxDir, gameID)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []model.PitchFxLog{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	logs := make([]model.PitchFxLog, 0, len(names))
	for _, name := range names {
		var l model.PitchFxLog
		if err := d.readJSON(filepath.Join(dir, name), &l); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// SavePitchFxLog writes one pitch-app log
func (d *Dir) SavePitchFxLog(l model.PitchFxLog) error {
	return d.writeJSON(d.PitchFxPath(l.BBRefGameID, l.PitchAppID), l)
}

// LoadPatchList reads the stored patch list of a game, or nil if there is none
func (d *Dir) LoadPatchList(gameID string) (*patch.List, error) {
	path := d.PatchListPath(gameID)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return patch.Load(path)
}

// SavePatchList writes the patch list of a game
func (d *Dir) SavePatchList(l *patch.List) error {
	return patch.Save(d.PatchListPath(l.GameID), l)
}

// SaveCombined exports a combined record and returns its path
func (d *Dir) SaveCombined(g *model.CombinedGame) (string, error) {
	path := d.CombinedPath(g.GameID)
	return path, d.writeJSON(path, g)
}

// LoadCombined reads an exported combined record
func (d *Dir) LoadCombined(gameID string) (*model.CombinedGame, error) {
	var g model.CombinedGame
	if err := d.readJSON(d.CombinedPath(gameID), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Selection picks games to process. Explicit ids win over date and season.
type Selection struct {
	GameIDs []string
	Date    string // YYYY-MM-DD
	Season  int
}

// Discover returns the ids of the selected games that have a boxscore,
// ordered by date then id
func (d *Dir) Discover(sel Selection) ([]string, error) {
	if len(sel.GameIDs) > 0 {
		out := make([]string, 0, len(sel.GameIDs))
		for _, id := range sel.GameIDs {
			if _, err := ids.ParseGameID(id); err != nil {
				return nil, err
			}
			if _, err := os.Stat(d.BoxscorePath(id)); err != nil {
				return nil, errors.Wrapf(util.ErrNotFound, "boxscore of %s", id)
			}
			out = append(out, id)
		}
		return out, nil
	}

	dir := filepath.Join(d.root, BoxscoreDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}

	var games []ids.GameID
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		game, err := ids.ParseGameID(strings.TrimSuffix(name, ".json"))
		if err != nil {
			util.DebugLog("gamedata: skipping %s: %v", name, err)
			continue
		}
		if sel.Season != 0 && game.Season() != sel.Season {
			continue
		}
		if sel.Date != "" && game.Date.Format("2006-01-02") != sel.Date {
			continue
		}
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].Date.Equal(games[j].Date) {
			return games[i].Date.Before(games[j].Date)
		}
		return games[i].String() < games[j].String()
	})

	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.String()
	}
	return out, nil
}

// MissingDirs lists the layout directories that do not exist
func (d *Dir) MissingDirs() []string {
	var missing []string
	for _, sub := range []string{BoxscoreDir, PitchFxDir, PatchDir, CombinedDir} {
		if info, err := os.Stat(filepath.Join(d.root, sub)); err != nil || !info.IsDir() {
			missing = append(missing, sub)
		}
	}
	return missing
}
