package reconcile

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

const topFirst = "CHA201906010_INN_TOP01"

func TestReconcileCleanGameWithDuplicate(t *testing.T) {
	f := newGameFixture()
	f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
	f.play("t1", "giolilu01", "candeje02", "BBBB", "Walk")
	f.play("b1", "boydma01", "anderti01", "SX", "Single to LF (Line Drive)")

	castro := f.track(1, "giolilu01", "castrha01", 1, "CBX", "Groundout")
	dup := castro[1]
	dup.ParkSvID = f.tick()
	f.add("giolilu01", dup)
	f.track(1, "giolilu01", "candeje02", 2, "BBBB", "Walk")
	f.track(1, "boydma01", "anderti01", 3, "SX", "Single")

	sink := &recordingSink{}
	g, err := New(sink).Reconcile(f.input())
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 20, 50, 100}, sink.percents)
	assert.Equal(t, testGame, g.GameID)
	assert.Equal(t, "gid_2019_06_01_detmlb_chamlb_1", g.BBGameID)
	assert.Equal(t, "2019-06-01T14:10:00-04:00", g.GameMeta.GameStartTime)

	require.Len(t, g.Innings, 2)
	assert.Equal(t, "t1", g.Innings[0].InningLabel)
	assert.Equal(t, "TOP", g.Innings[0].Half)
	assert.Equal(t, "b1", g.Innings[1].InningLabel)
	assert.Len(t, g.Innings[0].Events, 2)

	audit := g.Audit
	assert.Equal(t, model.ClassComplete, audit.Verdict)
	assert.Equal(t, 9, audit.PitchCountBBRef)
	assert.Equal(t, 9, audit.PitchCountPitchFx)
	assert.Equal(t, 9, audit.PitchCountBBRefStatsTable)
	assert.Equal(t, 3, audit.BattersFacedBBRef)
	assert.Equal(t, 3, audit.BattersFacedPitchFx)
	assert.Equal(t, 3, audit.TotalAtBatsPitchFxComplete)
	assert.Equal(t, 1, audit.DuplicatePitchFxRemovedCount)
	assert.Equal(t, []string{dup.PlayGUID}, g.DuplicateGUIDs)
	assert.Empty(t, g.InvalidPitchFx)
	assert.Empty(t, g.RemovedPitchFx)

	gio := findPitchApp(t, g, pitchAppID("giolilu01"))
	assert.Equal(t, 7, gio.Audit.PitchCountPitchFx)
	assert.Equal(t, 1, gio.Audit.DuplicatePitchFxRemovedCount)
	assert.Equal(t, "giolilu01", gio.PitcherIDBR)
	assert.Len(t, g.HomeTeamData.PitchingStats, 1)
	assert.Len(t, g.AwayTeamData.PitchingStats, 1)

	ab := findAtBat(t, g, atBatID(1, "giolilu01", "castrha01", 0))
	assert.Equal(t, model.ClassComplete, ab.Audit.Classification)
	assert.Equal(t, 1, ab.PfxABID)
	assert.Len(t, ab.PitchFx, 3)
	assert.Equal(t, 25, ab.SinceGameStart)
	assert.Equal(t, 40, ab.AtBatDuration)
	assert.True(t, ab.IsCompleteAtBat)
	assert.True(t, ab.PitchFx[2].IsFinalPitchOfAB)
	assert.True(t, ab.PitchFx[2].ABResultOut)
	require.Len(t, ab.PitchSequenceDescription, 4)
	assert.Equal(t, "Pitch 1/3", ab.PitchSequenceDescription[0].Label)
	assert.Equal(t, "93mph 4-Seam Fastball", ab.PitchSequenceDescription[0].PitchDetail)
	assert.Equal(t, "In play, out(s)", ab.PitchSequenceDescription[2].Outcome)
	assert.Equal(t, "Result", ab.PitchSequenceDescription[3].Label)
}

func TestReconcileMissingPitchFx(t *testing.T) {
	build := func() *gameFixture {
		f := newGameFixture()
		f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
		f.play("b1", "boydma01", "anderti01", "SX", "Single to LF")
		f.track(1, "giolilu01", "castrha01", 1, "CBX", "Groundout")
		return f
	}
	missingID := atBatID(1, "boydma01", "anderti01", 0)

	t.Run("explained by no_pitchfx_data", func(t *testing.T) {
		f := build()
		f.log("boydma01").NoPitchFxData = true

		g, err := New(nil).Reconcile(f.input())
		require.NoError(t, err)

		ab := findAtBat(t, g, missingID)
		assert.Equal(t, model.ClassMissing, ab.Audit.Classification)
		assert.Equal(t, []int{1, 2}, ab.Audit.MissingPitchNumbers)
		assert.True(t, g.Audit.MissingPitchFxIsValid)
		assert.Equal(t, model.ClassComplete, g.Audit.Verdict)
		assert.Equal(t, []string{missingID}, g.Audit.AtBatIDsMissingPitchFx)
		assert.Equal(t, 2, g.Audit.PitchCountMissingPitchFx)
		assert.True(t, findPitchApp(t, g, pitchAppID("boydma01")).NoPitchFxData)
	})

	t.Run("explained by absent log", func(t *testing.T) {
		in := build().input()
		in.Logs = in.Logs[:1]

		g, err := New(nil).Reconcile(in)
		require.NoError(t, err)
		assert.True(t, g.Audit.MissingPitchFxIsValid)
		assert.Equal(t, model.ClassComplete, g.Audit.Verdict)
	})

	t.Run("unexplained", func(t *testing.T) {
		g, err := New(nil).Reconcile(build().input())
		require.NoError(t, err)
		assert.False(t, g.Audit.MissingPitchFxIsValid)
		assert.Equal(t, model.ClassMissing, g.Audit.Verdict)
		assert.Equal(t, 1, g.Audit.BattersFacedPitchFx)
		assert.Equal(t, 2, g.Audit.BattersFacedBBRef)
	})
}

func TestReconcileUnmatchedGroupIsInvalid(t *testing.T) {
	f := newGameFixture()
	f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
	f.track(1, "giolilu01", "candeje02", 1, "CBX", "Groundout")

	g, err := New(nil).Reconcile(f.input())
	require.NoError(t, err)

	castro := findAtBat(t, g, atBatID(1, "giolilu01", "castrha01", 0))
	assert.Equal(t, model.ClassMissing, castro.Audit.Classification)
	assert.Equal(t, []int{1, 2, 3}, castro.Audit.MissingPitchNumbers)
	assert.Empty(t, castro.PitchFx)

	invalidID := atBatID(1, "giolilu01", "candeje02", 0)
	invalid := g.InvalidAtBats()
	require.Len(t, invalid, 1)
	assert.Equal(t, invalidID, invalid[0].AtBatID)
	assert.Equal(t, "Jeimer Candelario", invalid[0].BatterName)
	assert.Equal(t, model.ClassInvalid, invalid[0].Audit.Classification)
	assert.Len(t, g.InvalidPitchFx[topFirst], 1)

	assert.Equal(t, model.ClassInvalid, g.Audit.Verdict)
	assert.Equal(t, []string{invalidID}, g.Audit.AtBatIDsInvalidPitchFx)
	gio := findPitchApp(t, g, pitchAppID("giolilu01"))
	assert.Equal(t, 1, gio.Audit.TotalAtBatsInvalidPitchFx)
	assert.Equal(t, 3, gio.Audit.InvalidPitchFxCount)
	assert.Equal(t, 0, gio.Audit.PitchCountPitchFx)
	assert.Equal(t, 1, g.Innings[0].Audit.TotalAtBatsInvalidPitchFx)
}

func TestReconcileEmptyGame(t *testing.T) {
	g, err := New(nil).Reconcile(newGameFixture().input())
	require.NoError(t, err)

	assert.NotNil(t, g.Innings)
	assert.Empty(t, g.Innings)
	assert.Equal(t, model.ClassComplete, g.Audit.Verdict)
	assert.Equal(t, model.AuditCounts{}, g.Audit.AuditCounts)
	assert.True(t, g.Audit.MissingPitchFxIsValid)
	assert.Len(t, g.PitchApps(), 2)
	assert.Empty(t, g.GameMeta.GameStartTime)
}

func TestReconcileExtras(t *testing.T) {
	abID := atBatID(1, "giolilu01", "castrha01", 0)

	t.Run("outside the window are removed", func(t *testing.T) {
		f := newGameFixture()
		f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
		f.track(1, "giolilu01", "castrha01", 1, "CBX", "Groundout")
		f.add("giolilu01", f.pitch(1, "giolilu01", "castrha01", 1, 4, f.tick()))

		g, err := New(nil).Reconcile(f.input())
		require.NoError(t, err)

		ab := findAtBat(t, g, abID)
		assert.Equal(t, model.ClassExtraRemoved, ab.Audit.Classification)
		assert.Equal(t, []int{4}, ab.Audit.ExtraPitchNumbers)
		assert.Equal(t, 1, ab.Audit.RemovedPitchFxCount)
		assert.Len(t, ab.PitchFx, 3)
		assert.Len(t, ab.RemovedPitchFx, 1)
		assert.Len(t, g.RemovedPitchFx[topFirst][abID].PitchFx, 1)

		assert.Equal(t, model.ClassComplete, g.Audit.Verdict)
		assert.Equal(t, 1, g.Audit.ExtraPitchFxRemovedCount)
		assert.Equal(t, 1, g.Audit.TotalAtBatsExtraPitchFxRemoved)
		assert.Equal(t, []string{abID}, g.Audit.AtBatIDsExtraPitchFxRemoved)
	})

	t.Run("inside the window are kept", func(t *testing.T) {
		f := newGameFixture()
		f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
		pitches := f.track(1, "giolilu01", "castrha01", 1, "CBX", "Groundout")
		ts, err := ids.ParsePitchTimestamp(pitches[0].ParkSvID)
		require.NoError(t, err)
		between := ids.FormatPitchTimestamp(ts.Add(10 * time.Second))
		f.add("giolilu01", f.pitch(1, "giolilu01", "castrha01", 1, 5, between))

		g, err := New(nil).Reconcile(f.input())
		require.NoError(t, err)

		ab := findAtBat(t, g, abID)
		assert.Equal(t, model.ClassExtra, ab.Audit.Classification)
		assert.Len(t, ab.PitchFx, 4)
		assert.Empty(t, ab.RemovedPitchFx)
		assert.Equal(t, model.ClassExtra, g.Audit.Verdict)
		assert.Equal(t, 1, g.Audit.ExtraPitchFxCount)
	})
}

func TestReconcileRepeatMeetingTieBreak(t *testing.T) {
	f := newGameFixture()
	f.play("t1", "giolilu01", "castrha01", "X", "Flyout: CF")
	f.play("t1", "giolilu01", "castrha01", "BBX", "Single to RF")
	f.track(1, "giolilu01", "castrha01", 7, "BBX", "Single")

	g, err := New(nil).Reconcile(f.input())
	require.NoError(t, err)

	first := findAtBat(t, g, atBatID(1, "giolilu01", "castrha01", 0))
	second := findAtBat(t, g, atBatID(1, "giolilu01", "castrha01", 1))
	assert.Equal(t, model.ClassMissing, first.Audit.Classification)
	assert.Equal(t, model.ClassComplete, second.Audit.Classification)
	assert.Equal(t, 7, second.PfxABID)
	assert.Empty(t, g.InvalidPitchFx)
	assert.Equal(t, model.ClassMissing, g.Audit.Verdict)
}

func TestReconcileSequenceErrors(t *testing.T) {
	abID := atBatID(1, "giolilu01", "castrha01", 0)

	t.Run("unknown code", func(t *testing.T) {
		f := newGameFixture()
		f.play("t1", "giolilu01", "castrha01", "CUX", "Groundout: SS-1B")
		f.track(1, "giolilu01", "castrha01", 1, "CBX", "Groundout")

		g, err := New(nil).Reconcile(f.input())
		require.NoError(t, err)

		ab := findAtBat(t, g, abID)
		assert.Equal(t, model.ClassError, ab.Audit.Classification)
		assert.True(t, ab.Audit.PitchFxError)
		assert.Contains(t, ab.Audit.PitchFxErrorMessage, "U")
		assert.Equal(t, model.ClassError, g.Audit.Verdict)
		assert.Equal(t, []string{abID}, g.Audit.AtBatIDsPitchFxError)
	})

	t.Run("in play mismatch", func(t *testing.T) {
		f := newGameFixture()
		f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
		f.track(1, "giolilu01", "castrha01", 1, "CBB", "Groundout")

		g, err := New(nil).Reconcile(f.input())
		require.NoError(t, err)

		ab := findAtBat(t, g, abID)
		assert.Equal(t, model.ClassError, ab.Audit.Classification)
		assert.Contains(t, ab.Audit.PitchFxErrorMessage, "in play")
	})
}

func TestReconcileIntentionalWalks(t *testing.T) {
	t.Run("swing during intentional walk", func(t *testing.T) {
		f := newGameFixture()
		f.play("t1", "giolilu01", "castrha01", "IIII", "Intentional Walk")
		f.track(1, "giolilu01", "castrha01", 1, "IISI", "Intent Walk")

		g, err := New(nil).Reconcile(f.input())
		require.NoError(t, err)

		ab := findAtBat(t, g, atBatID(1, "giolilu01", "castrha01", 0))
		assert.Equal(t, model.ClassInvalid, ab.Audit.Classification)
		assert.Equal(t, model.ClassInvalid, g.Audit.Verdict)
		assert.Equal(t, 4, g.Audit.InvalidPitchFxCount)
	})

	t.Run("automatic walk without pitches", func(t *testing.T) {
		f := newGameFixture()
		f.play("t1", "giolilu01", "castrha01", "", "Intentional Walk")
		f.play("t1", "giolilu01", "candeje02", "X", "Flyout: LF")
		f.track(1, "giolilu01", "candeje02", 2, "X", "Flyout")

		g, err := New(nil).Reconcile(f.input())
		require.NoError(t, err)

		ab := findAtBat(t, g, atBatID(1, "giolilu01", "castrha01", 0))
		assert.Equal(t, model.ClassComplete, ab.Audit.Classification)
		assert.True(t, ab.IsCompleteAtBat)
		assert.Equal(t, 0, ab.Audit.PitchCountBBRef)
		assert.Equal(t, model.ClassComplete, g.Audit.Verdict)
		assert.Equal(t, 1, g.Audit.BattersFacedPitchFx)
	})
}

func TestReconcileAttachesSubstitutions(t *testing.T) {
	f := newGameFixture()
	f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
	f.sub("t1", "Defensive Substitution: Jose Abreu replaces Yoan Moncada playing 1B")
	f.play("b1", "boydma01", "anderti01", "SX", "Single to LF")

	g, err := New(nil).Reconcile(f.input())
	require.NoError(t, err)

	ab := findAtBat(t, g, atBatID(1, "giolilu01", "castrha01", 0))
	assert.Len(t, ab.PBPEvents, 2)
	assert.Equal(t, 1, ab.PBPTableRowNumber)
}

func TestReconcileDeletedRecordsAreRemoved(t *testing.T) {
	f := newGameFixture()
	f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
	f.track(1, "giolilu01", "castrha01", 1, "CBX", "Groundout")
	stray := f.pitch(1, "giolilu01", "castrha01", 1, 2, f.tick())
	stray.IsDeleted = true
	stray.IsPatched = true
	f.add("giolilu01", stray)

	g, err := New(nil).Reconcile(f.input())
	require.NoError(t, err)

	abID := atBatID(1, "giolilu01", "castrha01", 0)
	assert.Equal(t, model.ClassComplete, findAtBat(t, g, abID).Audit.Classification)
	assert.Equal(t, 0, g.Audit.DuplicatePitchFxRemovedCount)
	require.Contains(t, g.RemovedPitchFx, topFirst)
	assert.Len(t, g.RemovedPitchFx[topFirst][abID].PitchFx, 1)
}

func TestReconcileMalformedInput(t *testing.T) {
	t.Run("unknown player", func(t *testing.T) {
		f := newGameFixture()
		f.play("t1", "giolilu01", "nobody01", "X", "Flyout")
		_, err := New(nil).Reconcile(f.input())
		assert.True(t, errors.Is(err, util.ErrMalformedID))
	})

	t.Run("bad game id", func(t *testing.T) {
		f := newGameFixture()
		f.box.BBRefGameID = "CHA2019"
		_, err := New(nil).Reconcile(f.input())
		assert.True(t, errors.Is(err, util.ErrMalformedID))
	})

	t.Run("bad pitch timestamp", func(t *testing.T) {
		f := newGameFixture()
		p := f.pitch(1, "giolilu01", "castrha01", 1, 1, "not-a-time")
		f.add("giolilu01", p)
		_, err := New(nil).Reconcile(f.input())
		assert.True(t, errors.Is(err, util.ErrMalformedID))
	})
}

func TestReconcileDoesNotModifyInput(t *testing.T) {
	f := newGameFixture()
	f.play("t1", "giolilu01", "castrha01", "CBX", "Groundout: SS-1B")
	f.track(1, "giolilu01", "castrha01", 1, "CBX", "Groundout")
	in := f.input()
	before := model.CloneLogs(in.Logs)

	_, err := New(nil).Reconcile(in)
	require.NoError(t, err)
	assert.Equal(t, before, in.Logs)
}
