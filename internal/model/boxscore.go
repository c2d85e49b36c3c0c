package model

import "encoding/json"

// EventType distinguishes play-by-play rows.
type EventType string

const (
	EventAtBat        EventType = "AT_BAT"
	EventSubstitution EventType = "SUBSTITUTION"
	EventMisc         EventType = "MISC"
)

// PlayByPlayEvent is one row of the boxscore play-by-play table.
type PlayByPlayEvent struct {
	EventType       EventType `json:"event_type"`
	TableRowNumber  int       `json:"pbp_table_row_number"`
	InningLabel     string    `json:"inning_label"`
	PitcherIDBR     string    `json:"pitcher_id_br,omitempty"`
	BatterIDBR      string    `json:"batter_id_br,omitempty"`
	TeamPitchingBR  string    `json:"team_pitching_id_br,omitempty"`
	TeamBattingBR   string    `json:"team_batting_id_br,omitempty"`
	BattingOrder    int       `json:"batting_order,omitempty"`
	Score           string    `json:"score,omitempty"`
	OutsBeforePlay  int       `json:"outs_before_play"`
	RunnersOnBase   string    `json:"runners_on_base,omitempty"`
	PitchSequence   string    `json:"pitch_sequence,omitempty"`
	RunsOutsResult  string    `json:"runs_outs_result,omitempty"`
	PlayDescription string    `json:"play_description,omitempty"`
	SubDescription  string    `json:"sub_description,omitempty"`
	Description     string    `json:"description,omitempty"`
}

// GameMeta is the boxscore header.
type GameMeta struct {
	Stadium       string `json:"park_name"`
	Attendance    int    `json:"attendance"`
	GameDuration  string `json:"game_duration"`
	DayNight      string `json:"day_night"`
	FieldType     string `json:"field_type"`
	Temperature   string `json:"temperature"`
	Wind          string `json:"wind"`
	Weather       string `json:"weather,omitempty"`
	GameStartTime string `json:"game_start_time,omitempty"`
}

// PitchingStats is one pitcher's line from the boxscore.
type PitchingStats struct {
	PlayerIDBR     string  `json:"player_id_br"`
	InningsPitched float64 `json:"innings_pitched"`
	Hits           int     `json:"hits"`
	Runs           int     `json:"runs"`
	EarnedRuns     int     `json:"earned_runs"`
	Walks          int     `json:"bases_on_balls"`
	Strikeouts     int     `json:"strikeouts"`
	HomeRuns       int     `json:"homeruns"`
	BattersFaced   int     `json:"batters_faced"`
	PitchCount     int     `json:"pitch_count"`
	Strikes        int     `json:"strikes"`
}

// TeamData is one side of the boxscore. Batting and lineup blocks pass
// through untouched.
type TeamData struct {
	TeamIDBR       string          `json:"team_id_br"`
	TotalRuns      int             `json:"total_runs_scored_by_team"`
	TotalHits      int             `json:"total_hits_by_team"`
	TotalErrors    int             `json:"total_errors_by_team"`
	TeamWon        bool            `json:"team_won"`
	StartingLineup json.RawMessage `json:"starting_lineup,omitempty"`
	BattingStats   json.RawMessage `json:"batting_stats,omitempty"`
	PitchingStats  []PitchingStats `json:"pitching_stats"`
}

// PlayerInfo maps a bbref player id to the tracking id.
type PlayerInfo struct {
	Name     string `json:"name"`
	MLBID    int    `json:"mlb_id"`
	TeamIDBR string `json:"team_id_br"`
}

// Boxscore is the parsed boxscore page of one game.
type Boxscore struct {
	BBRefGameID  string                `json:"bbref_game_id"`
	BoxscoreURL  string                `json:"boxscore_url"`
	GameMeta     GameMeta              `json:"game_meta"`
	AwayTeamData TeamData              `json:"away_team_data"`
	HomeTeamData TeamData              `json:"home_team_data"`
	PlayByPlay   []PlayByPlayEvent     `json:"play_by_play"`
	PlayerIDDict map[string]PlayerInfo `json:"player_id_dict"`
}
