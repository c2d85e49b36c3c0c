package pitchfx

import (
	"math"
	"strings"

	"github.com/franz/pitchfx-janitor/internal/model"
)

type outcome struct {
	swing          bool
	contact        bool
	inPlay         bool
	calledStrike   bool
	swingingStrike bool
}

var (
	noSwing      = outcome{}
	called       = outcome{calledStrike: true}
	whiff        = outcome{swing: true, swingingStrike: true}
	foul         = outcome{swing: true, contact: true}
	ballInPlay   = outcome{swing: true, contact: true, inPlay: true}
	outcomeTable = map[string]outcome{
		"ball":                      noSwing,
		"ball in dirt":              noSwing,
		"intent ball":               noSwing,
		"pitchout":                  noSwing,
		"automatic ball":            noSwing,
		"hit by pitch":              noSwing,
		"automatic strike":          called,
		"called strike":             called,
		"swinging strike":           whiff,
		"swinging strike (blocked)": whiff,
		"swinging pitchout":         whiff,
		"missed bunt":               whiff,
		"foul":                      foul,
		"foul tip":                  foul,
		"foul bunt":                 foul,
		"foul pitchout":             foul,
		"foul (runner going)":       foul,
		"in play, out(s)":           ballInPlay,
		"in play, no out":           ballInPlay,
		"in play, run(s)":           ballInPlay,
	}
)

// lookupOutcome maps the pitch outcome text, falling back to the basic
// pitch type when the text is unknown.
func lookupOutcome(pdes, pitchType string) outcome {
	if o, ok := outcomeTable[strings.ToLower(strings.TrimSpace(pdes))]; ok {
		return o
	}
	switch strings.ToUpper(pitchType) {
	case "X":
		return ballInPlay
	case "S":
		return called
	default:
		return noSwing
	}
}

// Strike zone geometry in feet.
const (
	plateHalfWidth = 17.0 / 24.0
	ballRadius     = 1.45 / 12.0
)

// inZone reports whether any part of the ball crossed the zone.
func inZone(p model.PitchFx) bool {
	if p.SzTop <= p.SzBot || (p.Px == 0 && p.Pz == 0) {
		return false
	}
	if math.Abs(p.Px) > plateHalfWidth+ballRadius {
		return false
	}
	return p.Pz >= p.SzBot-ballRadius && p.Pz <= p.SzTop+ballRadius
}

var (
	resultsHit       = set("single", "double", "triple", "home run")
	resultsWalk      = set("walk", "intent walk")
	resultsStrikeout = set("strikeout", "strikeout - dp", "strikeout double play")
	resultsHBP       = set("hit by pitch")
	resultsError     = set("field error")
	resultsSacHit    = set("sac bunt", "sacrifice bunt dp")
	resultsSacFly    = set("sac fly", "sac fly dp")
	resultsOut       = set(
		"groundout", "flyout", "lineout", "pop out", "forceout", "grounded into dp",
		"double play", "triple play", "fielders choice out", "bunt groundout",
		"bunt pop out", "bunt lineout", "strikeout", "strikeout - dp",
		"strikeout double play", "sac bunt", "sac fly", "sac fly dp", "sacrifice bunt dp",
	)
	resultsUnclear = set(
		"fielders choice", "catcher interference", "batter interference",
		"fan interference", "runner out",
	)
)

// setResultFlags marks the final pitch of an at-bat with the at-bat outcome.
func setResultFlags(p *model.PitchFx) {
	des := strings.ToLower(strings.TrimSpace(p.Des))
	p.IsFinalPitchOfAB = true
	p.ABResultUnclear = resultsUnclear[des]
	p.ABResultOut = resultsOut[des]
	if resultsHit[des] {
		p.ABResultHit = true
		p.ABResultSingle = des == "single"
		p.ABResultDouble = des == "double"
		p.ABResultTriple = des == "triple"
		p.ABResultHomerun = des == "home run"
	}
	if resultsWalk[des] {
		p.ABResultBB = true
		p.ABResultIBB = des == "intent walk"
	}
	p.ABResultK = resultsStrikeout[des]
	p.ABResultHBP = resultsHBP[des]
	p.ABResultError = resultsError[des]
	p.ABResultSacHit = resultsSacHit[des]
	p.ABResultSacFly = resultsSacFly[des]
}

// IsIntentionalWalk reports whether an at-bat result text is an intentional walk.
func IsIntentionalWalk(des string) bool {
	return strings.EqualFold(strings.TrimSpace(des), "intent walk")
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
