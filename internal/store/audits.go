package store

import (
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// GameAuditRow is one row of the game_audit view
type GameAuditRow struct {
	BBRefGameID       string `db:"bbref_game_id" json:"bbref_game_id" yaml:"bbref_game_id"`
	GameDate          string `db:"game_date" json:"game_date" yaml:"game_date"`
	Season            int    `db:"season" json:"season" yaml:"season"`
	PitchApps         int    `db:"pitch_apps" json:"pitch_apps" yaml:"pitch_apps"`
	model.AuditCounts `yaml:",inline"`
}

// DateAuditRow is one row of the date_audit view
type DateAuditRow struct {
	GameDate          string `db:"game_date" json:"game_date" yaml:"game_date"`
	Season            int    `db:"season" json:"season" yaml:"season"`
	Games             int    `db:"games" json:"games" yaml:"games"`
	PitchApps         int    `db:"pitch_apps" json:"pitch_apps" yaml:"pitch_apps"`
	model.AuditCounts `yaml:",inline"`
}

// SeasonAuditRow is one row of the season_audit view
type SeasonAuditRow struct {
	Season            int `db:"season" json:"season" yaml:"season"`
	Games             int `db:"games" json:"games" yaml:"games"`
	PitchApps         int `db:"pitch_apps" json:"pitch_apps" yaml:"pitch_apps"`
	model.AuditCounts `yaml:",inline"`
}

// GameAudit reads the summed audit of one game
func (s *Store) GameAudit(gameID string) (*GameAuditRow, error) {
	var row GameAuditRow
	err := s.x.Get(&row, "SELECT * FROM game_audit WHERE bbref_game_id = ?", gameID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(util.ErrNotFound, "audit of game %s", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read game audit: %w", err)
	}
	return &row, nil
}

// DateAudit reads the summed audit of every game on one date (YYYY-MM-DD)
func (s *Store) DateAudit(date string) (*DateAuditRow, error) {
	var row DateAuditRow
	err := s.x.Get(&row, "SELECT * FROM date_audit WHERE game_date = ?", date)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(util.ErrNotFound, "audit of date %s", date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read date audit: %w", err)
	}
	return &row, nil
}

// SeasonAudit reads the summed audit of one season
func (s *Store) SeasonAudit(season int) (*SeasonAuditRow, error) {
	var row SeasonAuditRow
	err := s.x.Get(&row, "SELECT * FROM season_audit WHERE season = ?", season)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(util.ErrNotFound, "audit of season %d", season)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read season audit: %w", err)
	}
	return &row, nil
}

// DateAudits lists the date rollups of a season in date order
func (s *Store) DateAudits(season int) ([]DateAuditRow, error) {
	out := []DateAuditRow{}
	err := s.x.Select(&out, "SELECT * FROM date_audit WHERE season = ? ORDER BY game_date", season)
	if err != nil {
		return nil, fmt.Errorf("failed to list date audits: %w", err)
	}
	return out, nil
}

// SeasonAudits lists every season rollup
func (s *Store) SeasonAudits() ([]SeasonAuditRow, error) {
	out := []SeasonAuditRow{}
	if err := s.x.Select(&out, "SELECT * FROM season_audit ORDER BY season"); err != nil {
		return nil, fmt.Errorf("failed to list season audits: %w", err)
	}
	return out, nil
}
