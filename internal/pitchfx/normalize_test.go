package pitchfx

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

const testGame = "CHA201906010"

func pitch(abID, count int, parkSvID, pdes string) model.PitchFx {
	return model.PitchFx{
		PitchAppID:       testGame + "_641835",
		BBRefGameID:      testGame,
		PitcherID:        641835,
		BatterID:         660162,
		PitcherTeamIDBB:  "DET",
		OpponentTeamIDBB: "CHA",
		Inning:           1,
		ABID:             abID,
		ABTotal:          3,
		ABCount:          count,
		ParkSvID:         parkSvID,
		PDes:             pdes,
		ZoneLocation:     5,
		Px:               0.1,
		Pz:               2.5,
		SzTop:            3.4,
		SzBot:            1.6,
	}
}

func TestDeriveOutcomeTable(t *testing.T) {
	tests := []struct {
		pdes  string
		ptype string
		want  outcome
	}{
		{"Ball", "B", noSwing},
		{"Called Strike", "S", called},
		{"Automatic Strike", "S", called},
		{"Swinging Strike (Blocked)", "S", whiff},
		{"Foul Tip", "S", foul},
		{"In play, run(s)", "X", ballInPlay},
		{"missing_pdes", "X", ballInPlay},
		{"", "B", noSwing},
	}
	for _, tt := range tests {
		t.Run(tt.pdes, func(t *testing.T) {
			assert.Equal(t, tt.want, lookupOutcome(tt.pdes, tt.ptype))
		})
	}
}

func TestInZoneEdges(t *testing.T) {
	base := pitch(1, 1, "190601_181000", "Ball")
	tests := []struct {
		name string
		px   float64
		pz   float64
		want bool
	}{
		{"middle", 0, 2.5, true},
		{"ball touching outside edge", plateHalfWidth + ballRadius, 2.5, true},
		{"just off the plate", plateHalfWidth + ballRadius + 0.01, 2.5, false},
		{"ball touching top", 0, 3.4 + ballRadius, true},
		{"below the knees", 0, 1.6 - ballRadius - 0.01, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.Px, p.Pz = tt.px, tt.pz
			assert.Equal(t, tt.want, inZone(p))
		})
	}

	noLocation := base
	noLocation.Px, noLocation.Pz = 0, 0
	assert.False(t, inZone(noLocation))

	noZone := base
	noZone.SzTop, noZone.SzBot = 0, 0
	assert.False(t, inZone(noZone))

	// the zone is computed from the coordinates, not the gameday zone number
	unzoned := base
	unzoned.ZoneLocation = 0
	res, err := Normalize([]model.PitchFx{unzoned}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].HasZoneLocation)
	assert.True(t, res.Records[0].InZone)
}

func TestNormalizeAssignsAtBatIDs(t *testing.T) {
	records := []model.PitchFx{
		pitch(7, 1, "190601_181000", "Ball"),
		pitch(7, 2, "190601_181020", "Foul"),
		pitch(3, 1, "190601_180500", "Called Strike"),
	}

	res, err := Normalize(records, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	assert.Equal(t, "CHA201906010_01_DET_641835_CHA_660162_0", res.Records[0].AtBatID, "ab_id 3 is the first meeting")
	assert.Equal(t, "CHA201906010_01_DET_641835_CHA_660162_1", res.Records[1].AtBatID)
	assert.Equal(t, "CHA201906010_INN_BOT01", res.Records[1].InningID)
	assert.True(t, res.Records[0].CalledStrike)
	assert.True(t, res.Records[0].InZone)
	assert.Equal(t, time.Date(2019, 6, 1, 18, 4, 0, 0, time.UTC), res.GameStart)
	assert.Equal(t, "2019-06-01T14:05:00-04:00", res.Records[0].TimePitchThrown)
	assert.Equal(t, 60, res.Records[0].SecondsSinceGameStart)

	pinned, err := Normalize(records, Options{Instances: map[InstanceKey]int{
		{Base: "CHA201906010_01_DET_641835_CHA_660162", ABID: 3}: 1,
		{Base: "CHA201906010_01_DET_641835_CHA_660162", ABID: 7}: 2,
	}})
	require.NoError(t, err)
	assert.Equal(t, "CHA201906010_01_DET_641835_CHA_660162_1", pinned.Records[0].AtBatID)
	assert.Equal(t, "CHA201906010_01_DET_641835_CHA_660162_2", pinned.Records[1].AtBatID)
}

func TestNormalizeRemovesDuplicates(t *testing.T) {
	first := pitch(1, 2, "190601_181020", "Ball")
	first.PlayGUID = "guid-2"
	later := pitch(1, 2, "190601_181025", "Ball")
	later.PlayGUID = "guid-2"
	other := pitch(1, 2, "190601_181020", "Ball")
	other.PlayGUID = "guid-x"

	res, err := Normalize([]model.PitchFx{later, pitch(1, 1, "190601_181000", "Ball"), first, other}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	require.Len(t, res.Duplicates, 2)

	assert.Equal(t, "190601_181020", res.Records[1].ParkSvID)
	assert.Equal(t, "guid-2", res.Records[1].PlayGUID, "earlier timestamp wins, ties by insertion order")

	for _, d := range res.Duplicates {
		assert.True(t, d.IsDuplicatePitchNumber)
	}
	assert.False(t, res.Duplicates[0].IsDuplicateGUID, "guid-x tied on time and lost on order")
	assert.True(t, res.Duplicates[1].IsDuplicateGUID)
}

func TestNormalizeOutOfSequence(t *testing.T) {
	records := []model.PitchFx{
		pitch(1, 1, "190601_181000", "Ball"),
		pitch(1, 2, "190601_181020", "Called Strike"),
		pitch(1, 3, "190601_181040", "In play, out(s)"),
		pitch(1, 4, "190601_181200", "Ball"),
	}
	records[2].Des = "Groundout"

	res, err := Normalize(records, Options{})
	require.NoError(t, err)
	assert.False(t, res.Records[2].IsOutOfSequence)
	assert.True(t, res.Records[3].IsOutOfSequence, "ab_total is 3")
	assert.True(t, res.Records[2].IsFinalPitchOfAB)
	assert.True(t, res.Records[2].ABResultOut)
	assert.False(t, res.Records[3].IsFinalPitchOfAB)

	id := res.Records[0].AtBatID
	res, err = Normalize(records, Options{ExpectedCounts: map[string]int{id: 2}})
	require.NoError(t, err)
	assert.True(t, res.Records[2].IsOutOfSequence)
	assert.True(t, res.Records[1].IsFinalPitchOfAB)
}

func TestNormalizeInvalidIntentionalWalk(t *testing.T) {
	records := []model.PitchFx{
		pitch(1, 1, "190601_181000", "Intent Ball"),
		pitch(1, 2, "190601_181010", "Foul"),
		pitch(1, 3, "190601_181020", "Intent Ball"),
	}
	for i := range records {
		records[i].Des = "Intent Walk"
	}

	res, err := Normalize(records, Options{})
	require.NoError(t, err)
	for _, p := range res.Records {
		assert.True(t, p.IsInvalidIBB)
	}
	assert.True(t, res.Records[2].ABResultIBB)

	records[1].PDes = "Intent Ball"
	res, err = Normalize(records, Options{})
	require.NoError(t, err)
	for _, p := range res.Records {
		assert.False(t, p.IsInvalidIBB)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	records := []model.PitchFx{
		pitch(1, 1, "190601_181000", "Ball"),
		pitch(1, 1, "190601_181003", "Ball"),
		pitch(1, 2, "190601_181020", "Swinging Strike"),
		pitch(1, 3, "190601_181040", "In play, no out"),
		pitch(2, 1, "190601_181500", "Foul"),
	}
	records[3].Des = "Single"

	once, err := Normalize(records, Options{})
	require.NoError(t, err)
	twice, err := Normalize(once.Records, Options{GameStart: once.GameStart})
	require.NoError(t, err)

	assert.Equal(t, once.Records, twice.Records)
	assert.Empty(t, twice.Duplicates)
}

func TestNormalizeExcludesDeleted(t *testing.T) {
	deleted := pitch(1, 2, "190601_181020", "Ball")
	deleted.IsDeleted = true

	res, err := Normalize([]model.PitchFx{pitch(1, 1, "190601_181000", "Ball"), deleted}, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Len(t, res.Deleted, 1)
}

func TestNormalizeMalformed(t *testing.T) {
	badTime := pitch(1, 1, "not-a-time", "Ball")
	_, err := Normalize([]model.PitchFx{badTime}, Options{})
	assert.True(t, errors.Is(err, util.ErrMalformedID))

	badGame := pitch(1, 1, "190601_181000", "Ball")
	badGame.BBRefGameID = "CHA2019"
	_, err = Normalize([]model.PitchFx{badGame}, Options{})
	assert.True(t, errors.Is(err, util.ErrMalformedID))

	sameTeam := pitch(1, 1, "190601_181000", "Ball")
	sameTeam.OpponentTeamIDBB = "DET"
	_, err = Normalize([]model.PitchFx{sameTeam}, Options{})
	assert.True(t, errors.Is(err, util.ErrMalformedID))
}
