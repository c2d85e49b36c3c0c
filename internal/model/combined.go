package model

import (
	"encoding/json"
	"sort"
)

// Classification of one at-bat, also used as the game verdict.
type Classification string

const (
	ClassComplete     Classification = "COMPLETE"
	ClassPatched      Classification = "PATCHED"
	ClassMissing      Classification = "MISSING"
	ClassExtra        Classification = "EXTRA"
	ClassExtraRemoved Classification = "EXTRA_REMOVED"
	ClassError        Classification = "ERROR"
	ClassInvalid      Classification = "INVALID"
)

// AtBatAudit compares the play-by-play and tracked views of one at-bat.
type AtBatAudit struct {
	PitchCountBBRef     int            `json:"pitch_count_bbref"`
	PitchCountPitchFx   int            `json:"pitch_count_pitchfx"`
	PatchedPitchFxCount int            `json:"patched_pitchfx_count"`
	MissingPitchFxCount int            `json:"missing_pitchfx_count"`
	ExtraPitchFxCount   int            `json:"extra_pitchfx_count"`
	RemovedPitchFxCount int            `json:"removed_pitchfx_count"`
	MissingPitchNumbers []int          `json:"missing_pitch_numbers"`
	ExtraPitchNumbers   []int          `json:"extra_pitch_numbers"`
	PitchFxError        bool           `json:"pitchfx_error"`
	PitchFxErrorMessage string         `json:"pitchfx_error_message,omitempty"`
	Classification      Classification `json:"classification"`
}

// SequenceStep is one line of an at-bat's pitch sequence description.
type SequenceStep struct {
	Label       string `json:"label,omitempty"`
	Outcome     string `json:"outcome"`
	PitchDetail string `json:"pitch_detail,omitempty"`
}

// AtBat is one plate appearance with the pitches attached to it.
type AtBat struct {
	AtBatID                  string            `json:"at_bat_id"`
	PfxABID                  int               `json:"pfx_ab_id"`
	InningID                 string            `json:"inning_id"`
	PitchAppID               string            `json:"pitch_app_id"`
	PBPTableRowNumber        int               `json:"pbp_table_row_number"`
	PitcherIDBR              string            `json:"pitcher_id_bbref"`
	PitcherIDMLB             int               `json:"pitcher_id_mlb"`
	PitcherName              string            `json:"pitcher_name"`
	BatterIDBR               string            `json:"batter_id_bbref"`
	BatterIDMLB              int               `json:"batter_id_mlb"`
	BatterName               string            `json:"batter_name"`
	Audit                    AtBatAudit        `json:"at_bat_pitchfx_audit"`
	FirstPitchThrown         string            `json:"first_pitch_thrown,omitempty"`
	LastPitchThrown          string            `json:"last_pitch_thrown,omitempty"`
	SinceGameStart           int               `json:"since_game_start"`
	AtBatDuration            int               `json:"at_bat_duration"`
	IsCompleteAtBat          bool              `json:"is_complete_at_bat"`
	Score                    string            `json:"score"`
	OutsBeforePlay           int               `json:"outs_before_play"`
	RunnersOnBase            string            `json:"runners_on_base"`
	RunsOutsResult           string            `json:"runs_outs_result"`
	PlayDescription          string            `json:"play_description"`
	PitchSequence            string            `json:"pitch_sequence"`
	PitchSequenceDescription []SequenceStep    `json:"pitch_sequence_description"`
	PBPEvents                []PlayByPlayEvent `json:"pbp_events"`
	PitchFx                  []PitchFx         `json:"pitchfx"`
	RemovedPitchFx           []PitchFx         `json:"removed_pitchfx"`
}

// AuditCounts are the seventeen per pitch-app counters. Game, date and
// season audits are sums of these.
type AuditCounts struct {
	PitchCountBBRef                int `json:"pitch_count_bbref" yaml:"pitch_count_bbref" db:"pitch_count_bbref"`
	PitchCountPitchFx              int `json:"pitch_count_pitchfx" yaml:"pitch_count_pitchfx" db:"pitch_count_pitchfx"`
	BattersFacedBBRef              int `json:"batters_faced_bbref" yaml:"batters_faced_bbref" db:"batters_faced_bbref"`
	BattersFacedPitchFx            int `json:"batters_faced_pitchfx" yaml:"batters_faced_pitchfx" db:"batters_faced_pitchfx"`
	PatchedPitchFxCount            int `json:"patched_pitchfx_count" yaml:"patched_pitchfx_count" db:"patched_pitchfx_count"`
	MissingPitchFxCount            int `json:"missing_pitchfx_count" yaml:"missing_pitchfx_count" db:"missing_pitchfx_count"`
	ExtraPitchFxCount              int `json:"extra_pitchfx_count" yaml:"extra_pitchfx_count" db:"extra_pitchfx_count"`
	ExtraPitchFxRemovedCount       int `json:"extra_pitchfx_removed_count" yaml:"extra_pitchfx_removed_count" db:"extra_pitchfx_removed_count"`
	DuplicatePitchFxRemovedCount   int `json:"duplicate_pitchfx_removed_count" yaml:"duplicate_pitchfx_removed_count" db:"duplicate_pitchfx_removed_count"`
	InvalidPitchFxCount            int `json:"invalid_pitchfx_count" yaml:"invalid_pitchfx_count" db:"invalid_pitchfx_count"`
	TotalAtBatsPitchFxComplete     int `json:"total_at_bats_pitchfx_complete" yaml:"total_at_bats_pitchfx_complete" db:"total_at_bats_pitchfx_complete"`
	TotalAtBatsPatchedPitchFx      int `json:"total_at_bats_patched_pitchfx" yaml:"total_at_bats_patched_pitchfx" db:"total_at_bats_patched_pitchfx"`
	TotalAtBatsMissingPitchFx      int `json:"total_at_bats_missing_pitchfx" yaml:"total_at_bats_missing_pitchfx" db:"total_at_bats_missing_pitchfx"`
	TotalAtBatsExtraPitchFx        int `json:"total_at_bats_extra_pitchfx" yaml:"total_at_bats_extra_pitchfx" db:"total_at_bats_extra_pitchfx"`
	TotalAtBatsExtraPitchFxRemoved int `json:"total_at_bats_extra_pitchfx_removed" yaml:"total_at_bats_extra_pitchfx_removed" db:"total_at_bats_extra_pitchfx_removed"`
	TotalAtBatsPitchFxError        int `json:"total_at_bats_pitchfx_error" yaml:"total_at_bats_pitchfx_error" db:"total_at_bats_pitchfx_error"`
	TotalAtBatsInvalidPitchFx      int `json:"total_at_bats_invalid_pitchfx" yaml:"total_at_bats_invalid_pitchfx" db:"total_at_bats_invalid_pitchfx"`
}

// AuditCountColumns lists the counters in Values order.
var AuditCountColumns = []string{
	"pitch_count_bbref",
	"pitch_count_pitchfx",
	"batters_faced_bbref",
	"batters_faced_pitchfx",
	"patched_pitchfx_count",
	"missing_pitchfx_count",
	"extra_pitchfx_count",
	"extra_pitchfx_removed_count",
	"duplicate_pitchfx_removed_count",
	"invalid_pitchfx_count",
	"total_at_bats_pitchfx_complete",
	"total_at_bats_patched_pitchfx",
	"total_at_bats_missing_pitchfx",
	"total_at_bats_extra_pitchfx",
	"total_at_bats_extra_pitchfx_removed",
	"total_at_bats_pitchfx_error",
	"total_at_bats_invalid_pitchfx",
}

// Values returns the counters in AuditCountColumns order.
func (a AuditCounts) Values() []int {
	return []int{
		a.PitchCountBBRef,
		a.PitchCountPitchFx,
		a.BattersFacedBBRef,
		a.BattersFacedPitchFx,
		a.PatchedPitchFxCount,
		a.MissingPitchFxCount,
		a.ExtraPitchFxCount,
		a.ExtraPitchFxRemovedCount,
		a.DuplicatePitchFxRemovedCount,
		a.InvalidPitchFxCount,
		a.TotalAtBatsPitchFxComplete,
		a.TotalAtBatsPatchedPitchFx,
		a.TotalAtBatsMissingPitchFx,
		a.TotalAtBatsExtraPitchFx,
		a.TotalAtBatsExtraPitchFxRemoved,
		a.TotalAtBatsPitchFxError,
		a.TotalAtBatsInvalidPitchFx,
	}
}

// Add returns the field-wise sum.
func (a AuditCounts) Add(o AuditCounts) AuditCounts {
	return AuditCounts{
		PitchCountBBRef:                a.PitchCountBBRef + o.PitchCountBBRef,
		PitchCountPitchFx:              a.PitchCountPitchFx + o.PitchCountPitchFx,
		BattersFacedBBRef:              a.BattersFacedBBRef + o.BattersFacedBBRef,
		BattersFacedPitchFx:            a.BattersFacedPitchFx + o.BattersFacedPitchFx,
		PatchedPitchFxCount:            a.PatchedPitchFxCount + o.PatchedPitchFxCount,
		MissingPitchFxCount:            a.MissingPitchFxCount + o.MissingPitchFxCount,
		ExtraPitchFxCount:              a.ExtraPitchFxCount + o.ExtraPitchFxCount,
		ExtraPitchFxRemovedCount:       a.ExtraPitchFxRemovedCount + o.ExtraPitchFxRemovedCount,
		DuplicatePitchFxRemovedCount:   a.DuplicatePitchFxRemovedCount + o.DuplicatePitchFxRemovedCount,
		InvalidPitchFxCount:            a.InvalidPitchFxCount + o.InvalidPitchFxCount,
		TotalAtBatsPitchFxComplete:     a.TotalAtBatsPitchFxComplete + o.TotalAtBatsPitchFxComplete,
		TotalAtBatsPatchedPitchFx:      a.TotalAtBatsPatchedPitchFx + o.TotalAtBatsPatchedPitchFx,
		TotalAtBatsMissingPitchFx:      a.TotalAtBatsMissingPitchFx + o.TotalAtBatsMissingPitchFx,
		TotalAtBatsExtraPitchFx:        a.TotalAtBatsExtraPitchFx + o.TotalAtBatsExtraPitchFx,
		TotalAtBatsExtraPitchFxRemoved: a.TotalAtBatsExtraPitchFxRemoved + o.TotalAtBatsExtraPitchFxRemoved,
		TotalAtBatsPitchFxError:        a.TotalAtBatsPitchFxError + o.TotalAtBatsPitchFxError,
		TotalAtBatsInvalidPitchFx:      a.TotalAtBatsInvalidPitchFx + o.TotalAtBatsInvalidPitchFx,
	}
}

// GameAudit is the game-level audit: summed counters plus the verdict and
// the at-bats in every non-complete class.
type GameAudit struct {
	AuditCounts

	PitchCountBBRefStatsTable int            `json:"pitch_count_bbref_stats_table"`
	PitchCountMissingPitchFx  int            `json:"pitch_count_missing_pitchfx"`
	MissingPitchFxIsValid     bool           `json:"missing_pitchfx_is_valid"`
	Verdict                   Classification `json:"verdict"`

	AtBatIDsPatchedPitchFx      []string `json:"at_bat_ids_patched_pitchfx"`
	AtBatIDsMissingPitchFx      []string `json:"at_bat_ids_missing_pitchfx"`
	AtBatIDsExtraPitchFx        []string `json:"at_bat_ids_extra_pitchfx"`
	AtBatIDsExtraPitchFxRemoved []string `json:"at_bat_ids_extra_pitchfx_removed"`
	AtBatIDsPitchFxError        []string `json:"at_bat_ids_pitchfx_error"`
	AtBatIDsInvalidPitchFx      []string `json:"at_bat_ids_invalid_pitchfx"`
}

// PitchAppStats is a pitcher's boxscore line joined with the audit of
// that pitch-app.
type PitchAppStats struct {
	PitchAppID         string        `json:"pitch_app_id"`
	PitcherIDBR        string        `json:"pitcher_id_br"`
	PitcherIDMLB       int           `json:"pitcher_id_mlb"`
	PitcherName        string        `json:"pitcher_name"`
	NoPitchFxData      bool          `json:"no_pitchfx_data"`
	BBRefData          PitchingStats `json:"bbref_data"`
	PitchCountByInning []InningCount `json:"pitch_count_by_inning"`
	Audit              AuditCounts   `json:"pitch_app_pitchfx_audit"`
}

// CombinedTeamData is one side of the combined record.
type CombinedTeamData struct {
	TeamIDBR       string          `json:"team_id_br"`
	TotalRuns      int             `json:"total_runs_scored_by_team"`
	TotalHits      int             `json:"total_hits_by_team"`
	TotalErrors    int             `json:"total_errors_by_team"`
	TeamWon        bool            `json:"team_won"`
	StartingLineup json.RawMessage `json:"starting_lineup,omitempty"`
	BattingStats   json.RawMessage `json:"batting_stats,omitempty"`
	PitchingStats  []PitchAppStats `json:"pitching_stats"`
}

// HalfInning groups the at-bats of one half inning in play-by-play order.
type HalfInning struct {
	InningID    string      `json:"inning_id"`
	InningLabel string      `json:"inning_label"`
	Half        string      `json:"half"`
	Events      []AtBat     `json:"events"`
	Audit       AuditCounts `json:"inning_pitchfx_audit"`
}

// InvalidAtBat is a group of tracked pitches whose at-bat id matches no
// play-by-play at-bat.
type InvalidAtBat struct {
	AtBatID      string     `json:"at_bat_id"`
	InningID     string     `json:"inning_id"`
	PitchAppID   string     `json:"pitch_app_id"`
	PfxABID      int        `json:"pfx_ab_id"`
	PitcherIDMLB int        `json:"pitcher_id_mlb"`
	PitcherName  string     `json:"pitcher_name"`
	BatterIDMLB  int        `json:"batter_id_mlb"`
	BatterName   string     `json:"batter_name"`
	Audit        AtBatAudit `json:"at_bat_pitchfx_audit"`
	PitchFx      []PitchFx  `json:"pitchfx"`
}

// RemovedAtBat lists pitches dropped from one at-bat.
type RemovedAtBat struct {
	AtBatID    string    `json:"at_bat_id"`
	InningID   string    `json:"inning_id"`
	PitchAppID string    `json:"pitch_app_id"`
	PitchFx    []PitchFx `json:"pitchfx"`
}

// CombinedGame is the reconciled record of one game.
type CombinedGame struct {
	GameID         string                             `json:"game_id"`
	BBGameID       string                             `json:"bb_game_id"`
	BoxscoreURL    string                             `json:"boxscore_url"`
	GameMeta       GameMeta                           `json:"game_meta"`
	AwayTeamData   CombinedTeamData                   `json:"away_team_data"`
	HomeTeamData   CombinedTeamData                   `json:"home_team_data"`
	Innings        []HalfInning                       `json:"innings"`
	Audit          GameAudit                          `json:"pitchfx_vs_bbref_audit"`
	DuplicateGUIDs []string                           `json:"duplicate_guids"`
	RemovedPitchFx map[string]map[string]RemovedAtBat `json:"removed_pitchfx"`
	InvalidPitchFx map[string]map[string]InvalidAtBat `json:"invalid_pitchfx"`
	PlayerIDDict   map[string]PlayerInfo              `json:"player_id_dict"`
}

// AtBats flattens the innings in game order.
func (g *CombinedGame) AtBats() []AtBat {
	var out []AtBat
	for _, inning := range g.Innings {
		out = append(out, inning.Events...)
	}
	return out
}

// PitchApps returns every pitch-app, away team first.
func (g *CombinedGame) PitchApps() []PitchAppStats {
	out := make([]PitchAppStats, 0, len(g.AwayTeamData.PitchingStats)+len(g.HomeTeamData.PitchingStats))
	out = append(out, g.AwayTeamData.PitchingStats...)
	return append(out, g.HomeTeamData.PitchingStats...)
}

// InvalidAtBats flattens the invalid bucket, ordered by the first pitch thrown.
func (g *CombinedGame) InvalidAtBats() []InvalidAtBat {
	var out []InvalidAtBat
	for _, byAtBat := range g.InvalidPitchFx {
		for _, ab := range byAtBat {
			out = append(out, ab)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := firstParkSvID(out[i].PitchFx), firstParkSvID(out[j].PitchFx)
		if ti != tj {
			return ti < tj
		}
		return out[i].AtBatID < out[j].AtBatID
	})
	return out
}

func firstParkSvID(pfx []PitchFx) string {
	first := ""
	for _, p := range pfx {
		if first == "" || p.ParkSvID < first {
			first = p.ParkSvID
		}
	}
	return first
}
