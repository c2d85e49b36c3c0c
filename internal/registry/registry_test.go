package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/patch"
	"github.com/franz/pitchfx-janitor/internal/store"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var _ patch.PlayerLookup = (*Registry)(nil)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pfj.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	r := New(s.DB(), 0)
	require.NoError(t, r.EnsureSchema())
	return r
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lucas Giolito", "Lucas Giolito"},
		{"  Yoán   Moncada ", "Yoán Moncada"},
		{"Yoán Moncada", "Yoán Moncada"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}

func TestUpsertAndLookup(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Upsert([]Player{
		{MLBID: 608337, BBRefID: "giolilu01", Name: "Lucas Giolito", TeamIDBR: "CHW"},
		{MLBID: 660162, BBRefID: "moncayo01", Name: "Yoán Moncada", TeamIDBR: "CHW"},
	}))

	bbrefID, info, err := r.PlayerByMLBID(660162)
	require.NoError(t, err)
	assert.Equal(t, "moncayo01", bbrefID)
	assert.Equal(t, model.PlayerInfo{Name: "Yoán Moncada", MLBID: 660162, TeamIDBR: "CHW"}, info)

	_, _, err = r.PlayerByMLBID(660162)
	require.NoError(t, err)
	hits, misses := r.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	p, err := r.PlayerByBBRefID("giolilu01")
	require.NoError(t, err)
	assert.Equal(t, 608337, p.MLBID)

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsertInvalidatesCache(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Upsert([]Player{{MLBID: 490063, BBRefID: "herreke01", Name: "Kelvin Herrera", TeamIDBR: "KCR"}}))
	_, info, err := r.PlayerByMLBID(490063)
	require.NoError(t, err)
	assert.Equal(t, "KCR", info.TeamIDBR)

	require.NoError(t, r.Upsert([]Player{{MLBID: 490063, BBRefID: "herreke01", Name: "Kelvin Herrera", TeamIDBR: "CHW"}}))
	_, info, err = r.PlayerByMLBID(490063)
	require.NoError(t, err)
	assert.Equal(t, "CHW", info.TeamIDBR)
}

func TestLookupUnknown(t *testing.T) {
	r := newTestRegistry(t)
	_, _, err := r.PlayerByMLBID(123456)
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = r.PlayerByBBRefID("nobody01")
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestUpsertRejectsMalformedPlayer(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Upsert([]Player{
		{MLBID: 608337, BBRefID: "giolilu01", Name: "Lucas Giolito"},
		{MLBID: 0, BBRefID: "nobody01", Name: "Nobody"},
	})
	assert.True(t, errors.Is(err, util.ErrMalformedID))

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "the whole batch rolls back")
}

func TestImportFileAndBoxscore(t *testing.T) {
	r := newTestRegistry(t)
	path := filepath.Join(t.TempDir(), "players.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"giolilu01": {"name": "Lucas Giolito", "mlb_id": 608337, "team_id_br": "CHW"},
		"boydma01": {"name": "Matthew Boyd", "mlb_id": 571510, "team_id_br": "DET"}
	}`), 0o644))

	n, err := r.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	box := &model.Boxscore{PlayerIDDict: map[string]model.PlayerInfo{
		"castrha01": {Name: "Harold Castro", MLBID: 643256, TeamIDBR: "DET"},
		"unknown01": {Name: "No Tracking Id"},
	}}
	require.NoError(t, r.ImportBoxscore(box))

	n, err = r.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = r.ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
