package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// GameStatus is the import record of one game
type GameStatus struct {
	BBRefGameID           string    `db:"bbref_game_id" json:"bbref_game_id" yaml:"bbref_game_id"`
	BBGameID              string    `db:"bb_game_id" json:"bb_game_id" yaml:"bb_game_id"`
	GameDate              string    `db:"game_date" json:"game_date" yaml:"game_date"`
	Season                int       `db:"season" json:"season" yaml:"season"`
	Verdict               string    `db:"verdict" json:"verdict" yaml:"verdict"`
	MissingPitchFxIsValid bool      `db:"missing_pitchfx_is_valid" json:"missing_pitchfx_is_valid" yaml:"missing_pitchfx_is_valid"`
	PatchListVersion      int       `db:"patch_list_version" json:"patch_list_version" yaml:"patch_list_version"`
	CombinedPath          string    `db:"combined_path" json:"combined_path" yaml:"combined_path"`
	ImportedAt            time.Time `db:"imported_at" json:"imported_at" yaml:"imported_at"`
}

// StatusFilter narrows ListGameStatus. Zero fields match everything.
type StatusFilter struct {
	GameID  string
	Date    string // YYYY-MM-DD
	Season  int
	Verdict string
}

// pitchAppRow is one pitch_app_audit row
type pitchAppRow struct {
	PitchAppID    string `db:"pitch_app_id"`
	BBRefGameID   string `db:"bbref_game_id"`
	PitcherIDMLB  int    `db:"pitcher_id_mlb"`
	PitcherName   string `db:"pitcher_name"`
	GameDate      string `db:"game_date"`
	Season        int    `db:"season"`
	NoPitchFxData bool   `db:"no_pitchfx_data"`
	Imported      bool   `db:"imported"`
	model.AuditCounts
}

const gameStatusColumns = `
	bbref_game_id, bb_game_id, game_date, season, verdict,
	missing_pitchfx_is_valid, patch_list_version,
	COALESCE(combined_path, '') AS combined_path, imported_at`

var (
	insertPitchAppSQL = func() string {
		cols := append([]string{
			"pitch_app_id", "bbref_game_id", "pitcher_id_mlb", "pitcher_name",
			"game_date", "season", "no_pitchfx_data", "imported",
		}, model.AuditCountColumns...)
		return fmt.Sprintf("INSERT INTO pitch_app_audit (%s) VALUES (:%s)",
			strings.Join(cols, ", "), strings.Join(cols, ", :"))
	}()

	sumGameSQL = func() string {
		sums := make([]string, len(model.AuditCountColumns))
		for i, c := range model.AuditCountColumns {
			sums[i] = fmt.Sprintf("COALESCE(SUM(%s), 0) AS %s", c, c)
		}
		return fmt.Sprintf("SELECT %s FROM pitch_app_audit WHERE bbref_game_id = ?", strings.Join(sums, ", "))
	}()
)

// SaveCombinedGame imports one reconciled game: the game status row with
// the combined JSON and one audit row per pitch-app, all in one transaction.
// Before commit the rows are summed again and compared with the game audit
// of the record; a difference rolls everything back with ErrAuditMismatch.
// A game imported earlier is replaced.
func (s *Store) SaveCombinedGame(g *model.CombinedGame, combinedPath string, patchListVersion int) error {
	game, err := ids.ParseGameID(g.GameID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(g)
	if err != nil {
		return errors.Wrapf(err, "encode combined game %s", g.GameID)
	}

	return util.Retry(util.StoreRetryConfig(), func() error {
		return s.saveCombinedGame(g, game, data, combinedPath, patchListVersion)
	}, "save game "+g.GameID)
}

func (s *Store) saveCombinedGame(g *model.CombinedGame, game ids.GameID, data []byte, combinedPath string, patchListVersion int) error {
	tx, err := s.x.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	date := game.Date.Format("2006-01-02")
	season := game.Season()

	if _, err := tx.Exec("DELETE FROM pitch_app_audit WHERE bbref_game_id = ?", g.GameID); err != nil {
		return fmt.Errorf("failed to clear pitch app audit: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO game_status (
			bbref_game_id, bb_game_id, game_date, season, verdict,
			missing_pitchfx_is_valid, patch_list_version, combined_path, combined_json, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(bbref_game_id) DO UPDATE SET
			bb_game_id = excluded.bb_game_id,
			verdict = excluded.verdict,
			missing_pitchfx_is_valid = excluded.missing_pitchfx_is_valid,
			patch_list_version = excluded.patch_list_version,
			combined_path = excluded.combined_path,
			combined_json = excluded.combined_json,
			imported_at = excluded.imported_at
	`, g.GameID, g.BBGameID, date, season, string(g.Audit.Verdict),
		g.Audit.MissingPitchFxIsValid, patchListVersion, combinedPath, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert game status: %w", err)
	}

	for _, app := range g.PitchApps() {
		row := pitchAppRow{
			PitchAppID:    app.PitchAppID,
			BBRefGameID:   g.GameID,
			PitcherIDMLB:  app.PitcherIDMLB,
			PitcherName:   app.PitcherName,
			GameDate:      date,
			Season:        season,
			NoPitchFxData: app.NoPitchFxData,
			Imported:      true,
			AuditCounts:   app.Audit,
		}
		if _, err := tx.NamedExec(insertPitchAppSQL, row); err != nil {
			return fmt.Errorf("failed to insert pitch app %s: %w", app.PitchAppID, err)
		}
	}

	if err := checkGameSums(tx, g); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// checkGameSums compares the stored pitch-app rows of g with its game audit
func checkGameSums(tx *sqlx.Tx, g *model.CombinedGame) error {
	var sums model.AuditCounts
	if err := tx.Get(&sums, sumGameSQL, g.GameID); err != nil {
		return fmt.Errorf("failed to sum pitch app audit: %w", err)
	}
	got, want := sums.Values(), g.Audit.AuditCounts.Values()
	var diffs []string
	for i, col := range model.AuditCountColumns {
		if got[i] != want[i] {
			diffs = append(diffs, fmt.Sprintf("%s %d != %d", col, got[i], want[i]))
		}
	}
	if len(diffs) > 0 {
		return errors.Wrapf(util.ErrAuditMismatch, "game %s: %s", g.GameID, strings.Join(diffs, ", "))
	}
	return nil
}

// GetGameStatus returns the status row of a game, or nil if it was never imported
func (s *Store) GetGameStatus(gameID string) (*GameStatus, error) {
	var st GameStatus
	err := s.x.Get(&st, "SELECT"+gameStatusColumns+" FROM game_status WHERE bbref_game_id = ?", gameID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game status: %w", err)
	}
	return &st, nil
}

// ListGameStatus returns the status rows matching f, ordered by date and game id
func (s *Store) ListGameStatus(f StatusFilter) ([]GameStatus, error) {
	query := "SELECT" + gameStatusColumns + " FROM game_status WHERE 1=1"
	var args []interface{}
	if f.GameID != "" {
		query += " AND bbref_game_id = ?"
		args = append(args, f.GameID)
	}
	if f.Date != "" {
		query += " AND game_date = ?"
		args = append(args, f.Date)
	}
	if f.Season != 0 {
		query += " AND season = ?"
		args = append(args, f.Season)
	}
	if f.Verdict != "" {
		query += " AND verdict = ?"
		args = append(args, f.Verdict)
	}
	query += " ORDER BY game_date, bbref_game_id"

	out := []GameStatus{}
	if err := s.x.Select(&out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list game status: %w", err)
	}
	return out, nil
}

// LoadCombinedGame decodes the stored combined record of a game
func (s *Store) LoadCombinedGame(gameID string) (*model.CombinedGame, error) {
	var data string
	err := s.db.QueryRow("SELECT combined_json FROM game_status WHERE bbref_game_id = ?", gameID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(util.ErrNotFound, "game %s", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load combined game: %w", err)
	}
	var g model.CombinedGame
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, errors.Wrapf(err, "decode combined game %s", gameID)
	}
	return &g, nil
}

// VerdictCounts returns the number of imported games per verdict
func (s *Store) VerdictCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT verdict, COUNT(*) FROM game_status GROUP BY verdict")
	if err != nil {
		return nil, fmt.Errorf("failed to count verdicts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var verdict string
		var n int
		if err := rows.Scan(&verdict, &n); err != nil {
			return nil, err
		}
		counts[verdict] = n
	}
	return counts, rows.Err()
}
