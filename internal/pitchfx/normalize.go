// Package pitchfx derives per-pitch facts from the tracking stream alone:
// outcome flags, zone location, at-bat ids, duplicates and records that
// fall outside their at-bat.
package pitchfx

import (
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
)

// Options tunes one normalization pass.
type Options struct {
	// GameStart anchors seconds_since_game_start. Zero infers it from the first pitch.
	GameStart time.Time

	// ExpectedCounts maps at-bat id to the play-by-play pitch count. At-bats
	// without an entry fall back to the tracked ab_total.
	ExpectedCounts map[string]int

	// Instances pins the at-bat instance of a tracking at-bat, overriding
	// the ordinal numbering.
	Instances map[InstanceKey]int
}

// InstanceKey names one tracking at-bat within an at-bat base id.
type InstanceKey struct {
	Base string
	ABID int
}

// Result is the output of Normalize.
type Result struct {
	Records    []model.PitchFx
	Duplicates []model.PitchFx
	Deleted    []model.PitchFx
	GameStart  time.Time
}

type keyed struct {
	pfx   model.PitchFx
	ts    time.Time
	order int
}

// Normalize derives every flag for the pitches of one game. Input records
// are not modified. The only error is a malformed id or timestamp.
func Normalize(records []model.PitchFx, opts Options) (*Result, error) {
	result := &Result{GameStart: opts.GameStart}

	pitches := make([]keyed, 0, len(records))
	for i, rec := range records {
		p := rec
		p.PitchFlags = model.PitchFlags{}
		if p.IsDeleted {
			result.Deleted = append(result.Deleted, p)
			continue
		}
		ts, err := ids.ParsePitchTimestamp(p.ParkSvID)
		if err != nil {
			return nil, errors.Wrapf(err, "pitch app %s", p.PitchAppID)
		}
		deriveOutcome(&p)
		pitches = append(pitches, keyed{pfx: p, ts: ts, order: i})
	}

	if err := assignAtBatIDs(pitches, opts.Instances); err != nil {
		return nil, err
	}
	labelDeleted(result.Deleted, pitches)

	sort.SliceStable(pitches, func(i, j int) bool {
		if !pitches[i].ts.Equal(pitches[j].ts) {
			return pitches[i].ts.Before(pitches[j].ts)
		}
		return pitches[i].order < pitches[j].order
	})

	if result.GameStart.IsZero() && len(pitches) > 0 {
		result.GameStart = ids.InferGameStart(pitches[0].ts)
	}
	for i := range pitches {
		p := &pitches[i]
		p.pfx.TimePitchThrown = ids.InEastern(p.ts).Format(time.RFC3339)
		if !result.GameStart.IsZero() {
			p.pfx.SecondsSinceGameStart = int(p.ts.Sub(result.GameStart).Seconds())
		}
	}

	kept, dups := removeDuplicates(pitches)
	result.Duplicates = dups

	byAtBat := make(map[string][]int)
	var atBatOrder []string
	for i := range kept {
		id := kept[i].pfx.AtBatID
		if _, ok := byAtBat[id]; !ok {
			atBatOrder = append(atBatOrder, id)
		}
		byAtBat[id] = append(byAtBat[id], i)
	}

	for _, id := range atBatOrder {
		idx := byAtBat[id]
		expected, ok := opts.ExpectedCounts[id]
		if !ok {
			expected = kept[idx[0]].pfx.ABTotal
		}
		markOutOfSequence(kept, idx, expected, ok)
		markFinalPitch(kept, idx)
		markInvalidIBB(kept, idx)
	}

	result.Records = make([]model.PitchFx, len(kept))
	for i, k := range kept {
		result.Records[i] = k.pfx
	}
	return result, nil
}

func deriveOutcome(p *model.PitchFx) {
	o := lookupOutcome(p.PDes, p.Type)
	p.Swing = o.swing
	p.Contact = o.contact
	p.InPlay = o.inPlay
	p.CalledStrike = o.calledStrike
	p.SwingingStrike = o.swingingStrike
	p.HasZoneLocation = p.ZoneLocation > 0
	p.InZone = inZone(*p)
}

// assignAtBatIDs numbers repeat meetings of a pitcher and batter within a
// half inning by the order of their tracking at-bat ordinals.
func assignAtBatIDs(pitches []keyed, pinned map[InstanceKey]int) error {
	bases := make([]ids.AtBatID, len(pitches))
	abIDs := make(map[string][]int)
	for i := range pitches {
		p := &pitches[i].pfx
		game, err := ids.ParseGameID(p.BBRefGameID)
		if err != nil {
			return errors.Wrapf(err, "pitch %s", p.ParkSvID)
		}
		ab := ids.AtBatID{
			Game:        game,
			Inning:      p.Inning,
			PitcherTeam: p.PitcherTeamIDBB,
			PitcherID:   p.PitcherID,
			BatterTeam:  p.OpponentTeamIDBB,
			BatterID:    p.BatterID,
		}
		if err := ab.Validate(); err != nil {
			return errors.Wrapf(err, "pitch %s of %s", p.ParkSvID, p.PitchAppID)
		}
		bases[i] = ab
		base := ab.Base()
		if !containsInt(abIDs[base], p.ABID) {
			abIDs[base] = append(abIDs[base], p.ABID)
		}
	}
	for base := range abIDs {
		sort.Ints(abIDs[base])
	}
	for i := range pitches {
		p := &pitches[i].pfx
		base := bases[i].Base()
		instance, ok := pinned[InstanceKey{Base: base, ABID: p.ABID}]
		if !ok {
			instance = indexOf(abIDs[base], p.ABID)
		}
		id := bases[i].WithInstance(instance)
		if err := id.Validate(); err != nil {
			return errors.Wrapf(err, "pitch %s of %s", p.ParkSvID, p.PitchAppID)
		}
		p.AtBatID = id.String()
		p.InningID = id.InningID().String()
	}
	return nil
}

// labelDeleted gives deleted records the at-bat id their tracking at-bat
// resolved to, or instance 0 when every pitch of it was deleted. Records
// with an unusable id keep none.
func labelDeleted(deleted []model.PitchFx, pitches []keyed) {
	instances := make(map[InstanceKey]ids.AtBatID)
	for _, k := range pitches {
		id, err := ids.ParseAtBatID(k.pfx.AtBatID)
		if err != nil {
			continue
		}
		instances[InstanceKey{Base: id.Base(), ABID: k.pfx.ABID}] = id
	}
	for i := range deleted {
		p := &deleted[i]
		game, err := ids.ParseGameID(p.BBRefGameID)
		if err != nil {
			continue
		}
		base := ids.AtBatID{
			Game:        game,
			Inning:      p.Inning,
			PitcherTeam: p.PitcherTeamIDBB,
			PitcherID:   p.PitcherID,
			BatterTeam:  p.OpponentTeamIDBB,
			BatterID:    p.BatterID,
		}
		if base.Validate() != nil {
			continue
		}
		id, ok := instances[InstanceKey{Base: base.Base(), ABID: p.ABID}]
		if !ok {
			id = base
		}
		p.AtBatID = id.String()
		p.InningID = id.InningID().String()
	}
}

// removeDuplicates keeps one pitch per (at-bat, pitch number): the earliest,
// then the first seen. Input must be time ordered.
func removeDuplicates(pitches []keyed) ([]keyed, []model.PitchFx) {
	winners := make(map[string]int)
	kept := make([]keyed, 0, len(pitches))
	var dups []model.PitchFx
	for _, k := range pitches {
		key := k.pfx.AtBatID + "#" + strconv.Itoa(k.pfx.ABCount)
		if w, ok := winners[key]; ok {
			d := k.pfx
			d.IsDuplicatePitchNumber = true
			d.IsDuplicateGUID = d.PlayGUID != "" && d.PlayGUID == kept[w].pfx.PlayGUID
			dups = append(dups, d)
			continue
		}
		winners[key] = len(kept)
		kept = append(kept, k)
	}
	return kept, dups
}

func markOutOfSequence(kept []keyed, idx []int, expected int, fromPlayByPlay bool) {
	if expected <= 0 && !fromPlayByPlay {
		return
	}
	for _, i := range idx {
		n := kept[i].pfx.ABCount
		kept[i].pfx.IsOutOfSequence = n < 1 || n > expected
	}
}

func markFinalPitch(kept []keyed, idx []int) {
	final := -1
	for _, i := range idx {
		if kept[i].pfx.IsOutOfSequence {
			continue
		}
		if final < 0 || kept[i].pfx.ABCount > kept[final].pfx.ABCount {
			final = i
		}
	}
	if final >= 0 {
		setResultFlags(&kept[final].pfx)
	}
}

// markInvalidIBB flags an intentional walk in which the batter swung. The
// last tracked pitch decides the result, in sequence or not.
func markInvalidIBB(kept []keyed, idx []int) {
	last, swung := -1, false
	for _, i := range idx {
		p := kept[i].pfx
		if last < 0 || p.ABCount > kept[last].pfx.ABCount {
			last = i
		}
		if p.Swing {
			swung = true
		}
	}
	if last < 0 || !swung || !IsIntentionalWalk(kept[last].pfx.Des) {
		return
	}
	for _, i := range idx {
		kept[i].pfx.IsInvalidIBB = true
	}
}

// Flatten returns the pitches of every log in log order.
func Flatten(logs []model.PitchFxLog) []model.PitchFx {
	var out []model.PitchFx
	for _, l := range logs {
		out = append(out, l.PitchFx...)
	}
	return out
}

func containsInt(values []int, v int) bool {
	return indexOf(values, v) >= 0
}

func indexOf(values []int, v int) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
