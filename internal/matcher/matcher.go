// Package matcher pairs tracked at-bats that matched no play-by-play at-bat
// with at-bats missing their pitches, and proposes the patches that move
// the pitches over.
package matcher

import (
	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/patch"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// Outcome is the matcher's decision for one invalid at-bat.
type Outcome struct {
	InvalidAtBatID string
	MatchedAtBatID string
	Patches        int
	Err            error
}

// Result holds the proposed patch list and one outcome per invalid at-bat.
type Result struct {
	List     *patch.List
	Outcomes []Outcome
}

// Matched counts the invalid at-bats that found a home.
func (r *Result) Matched() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Matcher proposes patch lists for reconciled games.
type Matcher struct {
	players patch.PlayerLookup
}

// New creates a matcher. players fills in names the combined record lacks
// and may be nil.
func New(players patch.PlayerLookup) *Matcher {
	return &Matcher{players: players}
}

type candidate struct {
	atBat   model.AtBat
	id      ids.AtBatID
	missing map[int]bool
}

// Match runs one pass over the invalid bucket of g, oldest pitch first.
// Failing to place an at-bat is recorded in its outcome, never returned.
func (m *Matcher) Match(g *model.CombinedGame) *Result {
	result := &Result{List: patch.NewList(g.GameID)}

	var open []*candidate
	for _, ab := range g.AtBats() {
		if ab.Audit.Classification != model.ClassMissing {
			continue
		}
		id, err := ids.ParseAtBatID(ab.AtBatID)
		if err != nil {
			continue
		}
		c := &candidate{atBat: ab, id: id, missing: make(map[int]bool)}
		for _, n := range ab.Audit.MissingPitchNumbers {
			c.missing[n] = true
		}
		open = append(open, c)
	}
	consumed := make(map[string]bool)

	for _, v := range g.InvalidAtBats() {
		out := Outcome{InvalidAtBatID: v.AtBatID}
		c, err := pick(v, open, consumed)
		if err != nil {
			out.Err = err
			util.DebugLog("matcher: %s: %v", v.AtBatID, err)
			result.Outcomes = append(result.Outcomes, out)
			continue
		}
		consumed[c.atBat.AtBatID] = true
		out.MatchedAtBatID = c.atBat.AtBatID

		for _, p := range v.PitchFx {
			if c.atBat.PitcherIDMLB == v.PitcherIDMLB {
				result.List.Patches = append(result.List.Patches,
					patch.ChangeBatter(p, c.id, m.name(c.atBat.BatterName, c.id.BatterID)))
			} else {
				result.List.Patches = append(result.List.Patches,
					patch.ChangePitcher(p, c.id, m.name(c.atBat.PitcherName, c.id.PitcherID)))
			}
			out.Patches++
		}
		result.Outcomes = append(result.Outcomes, out)
	}
	return result
}

// pick finds the one missing at-bat that can take the pitches of v: same
// half inning, exactly one of pitcher or batter shared, and every pitch
// number of v missing from it. Several candidates narrow to those missing
// exactly as many pitches as v holds.
func pick(v model.InvalidAtBat, open []*candidate, consumed map[string]bool) (*candidate, error) {
	var fits []*candidate
	for _, c := range open {
		if consumed[c.atBat.AtBatID] || c.atBat.InningID != v.InningID {
			continue
		}
		if len(c.missing) < len(v.PitchFx) {
			continue
		}
		samePitcher := c.atBat.PitcherIDMLB == v.PitcherIDMLB
		sameBatter := c.atBat.BatterIDMLB == v.BatterIDMLB
		if samePitcher == sameBatter {
			continue
		}
		covered := true
		for _, p := range v.PitchFx {
			if !c.missing[p.ABCount] {
				covered = false
				break
			}
		}
		if covered {
			fits = append(fits, c)
		}
	}

	switch len(fits) {
	case 0:
		return nil, errors.Wrapf(util.ErrNoMatch, "no missing at-bat in %s takes %d pitches", v.InningID, len(v.PitchFx))
	case 1:
		return fits[0], nil
	}
	var exact []*candidate
	for _, c := range fits {
		if len(c.missing) == len(v.PitchFx) {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	return nil, errors.Wrapf(util.ErrMatchAmbiguous, "%d missing at-bats in %s fit", len(fits), v.InningID)
}

func (m *Matcher) name(known string, mlbID int) string {
	if known != "" || m.players == nil {
		return known
	}
	if _, info, err := m.players.PlayerByMLBID(mlbID); err == nil {
		return info.Name
	}
	return ""
}
