// Package model holds the records exchanged between the pipeline stages and
// persisted as JSON. Field names are stable; downstream readers key on them.
package model

// PitchFx is one tracked pitch.
type PitchFx struct {
	PitchAppID       string  `json:"pitch_app_id"`
	BBRefGameID      string  `json:"bbref_game_id"`
	BBGameID         string  `json:"bb_game_id"`
	PitcherName      string  `json:"pitcher_name"`
	PitcherID        int     `json:"pitcher_id"`
	BatterName       string  `json:"batter_name"`
	BatterID         int     `json:"batter_id"`
	PitcherTeamIDBB  string  `json:"pitcher_team_id_bb"`
	OpponentTeamIDBB string  `json:"opponent_team_id_bb"`
	TableRowNumber   int     `json:"table_row_number"`
	ParkSvID         string  `json:"park_sv_id"`
	PlayGUID         string  `json:"play_guid"`
	Inning           int     `json:"inning"`
	ABID             int     `json:"ab_id"`
	ABTotal          int     `json:"ab_total"`
	ABCount          int     `json:"ab_count"`
	Des              string  `json:"des"`
	PDes             string  `json:"pdes"`
	Type             string  `json:"type"`
	MLBAMPitchName   string  `json:"mlbam_pitch_name"`
	StartSpeed       float64 `json:"start_speed"`
	Spin             float64 `json:"spin"`
	PfxX             float64 `json:"pfx_x"`
	PfxZ             float64 `json:"pfx_z"`
	Px               float64 `json:"px"`
	Pz               float64 `json:"pz"`
	SzTop            float64 `json:"sz_top"`
	SzBot            float64 `json:"sz_bot"`
	ZoneLocation     int     `json:"zone_location"`
	Stand            string  `json:"stand"`
	PThrows          string  `json:"p_throws"`
	Balls            int     `json:"balls"`
	Strikes          int     `json:"strikes"`

	IsPatched bool `json:"is_patched"`
	IsDeleted bool `json:"is_deleted,omitempty"`

	PitchFlags
}

// PitchFlags are derived by the normalizer and nowhere else.
type PitchFlags struct {
	AtBatID               string `json:"at_bat_id,omitempty"`
	InningID              string `json:"inning_id,omitempty"`
	TimePitchThrown       string `json:"time_pitch_thrown_str,omitempty"`
	SecondsSinceGameStart int    `json:"seconds_since_game_start"`

	HasZoneLocation bool `json:"has_zone_location"`
	Swing           bool `json:"swing"`
	Contact         bool `json:"contact"`
	InPlay          bool `json:"in_play"`
	CalledStrike    bool `json:"called_strike"`
	SwingingStrike  bool `json:"swinging_strike"`
	InZone          bool `json:"in_zone"`

	IsFinalPitchOfAB bool `json:"is_final_pitch_of_ab"`
	ABResultHit      bool `json:"ab_result_hit"`
	ABResultSingle   bool `json:"ab_result_single"`
	ABResultDouble   bool `json:"ab_result_double"`
	ABResultTriple   bool `json:"ab_result_triple"`
	ABResultHomerun  bool `json:"ab_result_homerun"`
	ABResultOut      bool `json:"ab_result_out"`
	ABResultBB       bool `json:"ab_result_bb"`
	ABResultIBB      bool `json:"ab_result_ibb"`
	ABResultK        bool `json:"ab_result_k"`
	ABResultHBP      bool `json:"ab_result_hbp"`
	ABResultError    bool `json:"ab_result_error"`
	ABResultSacHit   bool `json:"ab_result_sac_hit"`
	ABResultSacFly   bool `json:"ab_result_sac_fly"`
	ABResultUnclear  bool `json:"ab_result_unclear"`

	IsDuplicateGUID        bool `json:"is_duplicate_guid"`
	IsDuplicatePitchNumber bool `json:"is_duplicate_pitch_number"`
	IsOutOfSequence        bool `json:"is_out_of_sequence"`
	IsInvalidIBB           bool `json:"is_invalid_ibb"`
}

// InningCount is one bucket of a pitch-count-by-inning histogram.
type InningCount struct {
	Inning int `json:"inning"`
	Count  int `json:"count"`
}

// PitchFxLog is every tracked pitch of one pitch-app.
type PitchFxLog struct {
	PitchAppID                   string        `json:"pitch_app_id"`
	BBRefGameID                  string        `json:"bbref_game_id"`
	BBGameID                     string        `json:"bb_game_id"`
	PitcherName                  string        `json:"pitcher_name"`
	PitcherID                    int           `json:"pitcher_id"`
	PitcherTeamIDBB              string        `json:"pitcher_team_id_bb"`
	OpponentTeamIDBB             string        `json:"opponent_team_id_bb"`
	NoPitchFxData                bool          `json:"no_pitchfx_data"`
	PitchCountByInning           []InningCount `json:"pitch_count_by_inning"`
	TotalPitchCount              int           `json:"total_pitch_count"`
	DuplicatePitchesRemovedCount int           `json:"duplicate_pitches_removed_count"`
	PitchFx                      []PitchFx     `json:"pitchfx_log"`
}

// Clone returns a deep copy.
func (l PitchFxLog) Clone() PitchFxLog {
	c := l
	c.PitchCountByInning = append([]InningCount(nil), l.PitchCountByInning...)
	c.PitchFx = append([]PitchFx(nil), l.PitchFx...)
	return c
}

// CloneLogs deep copies a slice of logs.
func CloneLogs(logs []PitchFxLog) []PitchFxLog {
	out := make([]PitchFxLog, len(logs))
	for i, l := range logs {
		out[i] = l.Clone()
	}
	return out
}
