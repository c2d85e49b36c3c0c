package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/franz/pitchfx-janitor/internal/model"
)

// atBatResult is one combined at-bat plus the records removed from it.
type atBatResult struct {
	atBat   model.AtBat
	removed []model.PitchFx
}

// combineAtBat attaches the tracked pitches to one play-by-play at-bat and
// classifies the pair.
func combineAtBat(pa *playAtBat, records []model.PitchFx, pfxABID int) atBatResult {
	sorted := append([]model.PitchFx(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ABCount != sorted[j].ABCount {
			return sorted[i].ABCount < sorted[j].ABCount
		}
		return sorted[i].SecondsSinceGameStart < sorted[j].SecondsSinceGameStart
	})

	var inSeq, extras []model.PitchFx
	observed := make(map[int]bool)
	invalidIBB := false
	for _, p := range sorted {
		if p.IsInvalidIBB {
			invalidIBB = true
		}
		if p.IsOutOfSequence {
			extras = append(extras, p)
			continue
		}
		observed[p.ABCount] = true
		inSeq = append(inSeq, p)
	}

	missing := []int{}
	for n := 1; n <= pa.expected; n++ {
		if !observed[n] {
			missing = append(missing, n)
		}
	}
	extraNumbers := []int{}
	for _, p := range extras {
		extraNumbers = append(extraNumbers, p.ABCount)
	}
	removed, kept := splitRemovable(inSeq, extras, pa.expected)

	patched := 0
	for _, p := range inSeq {
		if p.IsPatched {
			patched++
		}
	}

	errMsg := ""
	if pa.seqErr != nil {
		errMsg = pa.seqErr.Error()
	} else if final, ok := finalPitch(inSeq, pa.expected); ok {
		want := endsInPlay(pa.sequence)
		if final.InPlay != want {
			errMsg = fmt.Sprintf("pitch %d/%d: play-by-play in play=%t, pitchfx in play=%t (%s)",
				final.ABCount, pa.expected, want, final.InPlay, final.PDes)
		}
	}

	audit := model.AtBatAudit{
		PitchCountBBRef:     pa.expected,
		PitchCountPitchFx:   len(inSeq),
		PatchedPitchFxCount: patched,
		MissingPitchFxCount: len(missing),
		ExtraPitchFxCount:   len(extras),
		RemovedPitchFxCount: len(removed),
		MissingPitchNumbers: missing,
		ExtraPitchNumbers:   extraNumbers,
		PitchFxError:        errMsg != "",
		PitchFxErrorMessage: errMsg,
	}
	switch {
	case invalidIBB:
		audit.Classification = model.ClassInvalid
	case errMsg != "":
		audit.Classification = model.ClassError
	case len(missing) > 0:
		audit.Classification = model.ClassMissing
	case len(kept) > 0:
		audit.Classification = model.ClassExtra
	case len(removed) > 0:
		audit.Classification = model.ClassExtraRemoved
	case patched > 0:
		audit.Classification = model.ClassPatched
	default:
		audit.Classification = model.ClassComplete
	}

	runsOuts := make([]string, 0, len(pa.events))
	for _, e := range pa.events {
		if e.EventType == model.EventAtBat {
			runsOuts = append(runsOuts, e.RunsOutsResult)
		}
	}

	ab := model.AtBat{
		AtBatID:           pa.id.String(),
		PfxABID:           pfxABID,
		InningID:          pa.inning.String(),
		PitchAppID:        pa.id.PitchAppID().String(),
		PBPTableRowNumber: pa.first.TableRowNumber,
		PitcherIDBR:       pa.final.PitcherIDBR,
		PitcherIDMLB:      pa.pitcher.MLBID,
		PitcherName:       pa.pitcher.Name,
		BatterIDBR:        pa.final.BatterIDBR,
		BatterIDMLB:       pa.batter.MLBID,
		BatterName:        pa.batter.Name,
		Audit:             audit,
		IsCompleteAtBat:   pa.complete,
		Score:             pa.first.Score,
		OutsBeforePlay:    pa.first.OutsBeforePlay,
		RunnersOnBase:     pa.first.RunnersOnBase,
		RunsOutsResult:    strings.Join(runsOuts, ""),
		PlayDescription:   pa.final.PlayDescription,
		PitchSequence:     pa.sequence,
		PBPEvents:         pa.events,
		PitchFx:           append(inSeq, kept...),
		RemovedPitchFx:    removed,
	}
	if ab.PitchFx == nil {
		ab.PitchFx = []model.PitchFx{}
	}
	if ab.RemovedPitchFx == nil {
		ab.RemovedPitchFx = []model.PitchFx{}
	}
	if len(inSeq) > 0 {
		first, last := inSeq[0], inSeq[len(inSeq)-1]
		ab.FirstPitchThrown = first.TimePitchThrown
		ab.LastPitchThrown = last.TimePitchThrown
		ab.SinceGameStart = first.SecondsSinceGameStart
		ab.AtBatDuration = last.SecondsSinceGameStart - first.SecondsSinceGameStart
	}
	var described []model.PitchFx
	if len(missing) == 0 {
		described = inSeq
	}
	ab.PitchSequenceDescription = describeAtBat(pa, described)
	return atBatResult{atBat: ab, removed: removed}
}

// splitRemovable separates extras that can be cut from the at-bat: those
// thrown outside the span of its in-sequence pitches. An at-bat without
// pitches gives up every tracked record.
func splitRemovable(inSeq, extras []model.PitchFx, expected int) (removed, kept []model.PitchFx) {
	if len(extras) == 0 {
		return nil, nil
	}
	if expected == 0 || len(inSeq) == 0 {
		return extras, nil
	}
	lo, hi := inSeq[0].SecondsSinceGameStart, inSeq[0].SecondsSinceGameStart
	for _, p := range inSeq {
		if p.SecondsSinceGameStart < lo {
			lo = p.SecondsSinceGameStart
		}
		if p.SecondsSinceGameStart > hi {
			hi = p.SecondsSinceGameStart
		}
	}
	for _, p := range extras {
		s := p.SecondsSinceGameStart
		if s > lo && s < hi {
			kept = append(kept, p)
		} else {
			removed = append(removed, p)
		}
	}
	return removed, kept
}

func finalPitch(inSeq []model.PitchFx, expected int) (model.PitchFx, bool) {
	if expected == 0 || len(inSeq) == 0 {
		return model.PitchFx{}, false
	}
	last := inSeq[len(inSeq)-1]
	return last, last.ABCount == expected
}
