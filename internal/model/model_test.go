package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCountsValuesMatchColumns(t *testing.T) {
	a := AuditCounts{PitchCountBBRef: 1, TotalAtBatsInvalidPitchFx: 17}
	values := a.Values()
	require.Len(t, values, len(AuditCountColumns))
	assert.Equal(t, 1, values[0])
	assert.Equal(t, 17, values[len(values)-1])

	data, err := json.Marshal(a)
	require.NoError(t, err)
	var keys map[string]int
	require.NoError(t, json.Unmarshal(data, &keys))
	for i, col := range AuditCountColumns {
		assert.Equal(t, values[i], keys[col], col)
	}
}

func TestAuditCountsAdd(t *testing.T) {
	a := AuditCounts{PitchCountBBRef: 90, MissingPitchFxCount: 4, TotalAtBatsMissingPitchFx: 1}
	b := AuditCounts{PitchCountBBRef: 15, PitchCountPitchFx: 15, TotalAtBatsPitchFxComplete: 4}
	sum := a.Add(b)
	assert.Equal(t, 105, sum.PitchCountBBRef)
	assert.Equal(t, 15, sum.PitchCountPitchFx)
	assert.Equal(t, 4, sum.MissingPitchFxCount)
	assert.Equal(t, 4, sum.TotalAtBatsPitchFxComplete)
	assert.Equal(t, AuditCounts{}.Add(a), a)
}

func TestCombinedGameTopLevelKeys(t *testing.T) {
	g := CombinedGame{GameID: "CHA201906010"}
	data, err := json.Marshal(g)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{
		"game_id", "bb_game_id", "boxscore_url", "game_meta", "away_team_data", "home_team_data",
		"innings", "pitchfx_vs_bbref_audit", "duplicate_guids", "removed_pitchfx", "invalid_pitchfx",
		"player_id_dict",
	} {
		assert.Contains(t, doc, key)
	}

	var audit map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["pitchfx_vs_bbref_audit"], &audit))
	assert.Contains(t, audit, "pitch_count_missing_pitchfx")
	assert.Contains(t, audit, "total_at_bats_invalid_pitchfx")
	assert.Contains(t, audit, "verdict")
}

func TestInvalidAtBatsOrderedByFirstPitch(t *testing.T) {
	g := CombinedGame{InvalidPitchFx: map[string]map[string]InvalidAtBat{
		"CHA201906010_INN_TOP03": {
			"b": {AtBatID: "b", PitchFx: []PitchFx{{ParkSvID: "190601_190500"}}},
		},
		"CHA201906010_INN_TOP01": {
			"a": {AtBatID: "a", PitchFx: []PitchFx{{ParkSvID: "190601_181000"}, {ParkSvID: "190601_180900"}}},
		},
	}}
	got := g.InvalidAtBats()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].AtBatID)
	assert.Equal(t, "b", got[1].AtBatID)
}

func TestCloneLogsIsDeep(t *testing.T) {
	logs := []PitchFxLog{{PitchAppID: "CHA201906010_641835", PitchFx: []PitchFx{{ABCount: 1}}}}
	c := CloneLogs(logs)
	c[0].PitchFx[0].ABCount = 9
	assert.Equal(t, 1, logs[0].PitchFx[0].ABCount)
}
