package gamedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/patch"
	"github.com/franz/pitchfx-janitor/internal/util"
)

func TestBoxscoreRoundTrip(t *testing.T) {
	d := Open(t.TempDir())
	box := &model.Boxscore{
		BBRefGameID:  "CHA201906010",
		AwayTeamData: model.TeamData{TeamIDBR: "DET"},
		HomeTeamData: model.TeamData{TeamIDBR: "CHW"},
	}
	require.NoError(t, d.SaveBoxscore(box))

	loaded, err := d.LoadBoxscore("CHA201906010")
	require.NoError(t, err)
	assert.Equal(t, "CHW", loaded.HomeTeamData.TeamIDBR)

	_, err = d.LoadBoxscore("CHA201906020")
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestPitchFxLogs(t *testing.T) {
	d := Open(t.TempDir())

	logs, err := d.LoadPitchFxLogs("CHA201906010")
	require.NoError(t, err)
	assert.Empty(t, logs)

	for _, id := range []string{"CHA201906010_608337", "CHA201906010_571510"} {
		require.NoError(t, d.SavePitchFxLog(model.PitchFxLog{PitchAppID: id, BBRefGameID: "CHA201906010"}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), PitchFxDir, "CHA201906010", "notes.txt"), []byte("x"), 0o644))

	logs, err = d.LoadPitchFxLogs("CHA201906010")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "CHA201906010_571510", logs[0].PitchAppID)
	assert.Equal(t, "CHA201906010_608337", logs[1].PitchAppID)
}

func TestPatchListAbsentIsNil(t *testing.T) {
	d := Open(t.TempDir())
	l, err := d.LoadPatchList("CHA201906010")
	require.NoError(t, err)
	assert.Nil(t, l)

	list := patch.NewList("CHA201906010")
	list.Patches = append(list.Patches, patch.Delete(model.PitchFx{PitchAppID: "CHA201906010_608337", ParkSvID: "190601_181020"}))
	require.NoError(t, d.SavePatchList(list))

	l, err = d.LoadPatchList("CHA201906010")
	require.NoError(t, err)
	assert.Equal(t, list, l)
}

func TestCombinedRoundTrip(t *testing.T) {
	d := Open(t.TempDir())
	g := &model.CombinedGame{GameID: "CHA201906010", Audit: model.GameAudit{Verdict: model.ClassComplete}}
	path, err := d.SaveCombined(g)
	require.NoError(t, err)
	assert.Equal(t, d.CombinedPath("CHA201906010"), path)

	loaded, err := d.LoadCombined("CHA201906010")
	require.NoError(t, err)
	assert.Equal(t, model.ClassComplete, loaded.Audit.Verdict)
}

func TestDiscover(t *testing.T) {
	d := Open(t.TempDir())
	for _, id := range []string{"CHA201906020", "NYA201906011", "NYA201906012", "CHA201906010", "BOS201807040"} {
		require.NoError(t, d.SaveBoxscore(&model.Boxscore{BBRefGameID: id}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), BoxscoreDir, "README.json"), []byte("{}"), 0o644))

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{"everything", Selection{}, []string{"BOS201807040", "CHA201906010", "NYA201906011", "NYA201906012", "CHA201906020"}},
		{"season", Selection{Season: 2018}, []string{"BOS201807040"}},
		{"date", Selection{Date: "2019-06-01"}, []string{"CHA201906010", "NYA201906011", "NYA201906012"}},
		{"explicit ids", Selection{GameIDs: []string{"CHA201906020"}, Season: 2018}, []string{"CHA201906020"}},
		{"empty date", Selection{Date: "2019-06-03"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Discover(tt.sel)
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := d.Discover(Selection{GameIDs: []string{"CHA201906030"}})
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = d.Discover(Selection{GameIDs: []string{"chicago"}})
	assert.True(t, errors.Is(err, util.ErrMalformedID))
}

func TestMissingDirs(t *testing.T) {
	d := Open(t.TempDir())
	assert.Equal(t, []string{BoxscoreDir, PitchFxDir, PatchDir, CombinedDir}, d.MissingDirs())

	require.NoError(t, os.MkdirAll(filepath.Join(d.Root(), BoxscoreDir), 0o755))
	assert.Equal(t, []string{PitchFxDir, PatchDir, CombinedDir}, d.MissingDirs())
}
