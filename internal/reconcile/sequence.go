package reconcile

import (
	"fmt"
	"strings"
)

type pitchCode struct {
	counts      bool
	description string
}

// Play-by-play pitch sequence codes.
var pitchCodes = map[rune]pitchCode{
	'B': {true, "Ball"},
	'C': {true, "Called Strike"},
	'F': {true, "Foul"},
	'H': {true, "Hit Batter"},
	'I': {true, "Intentional Ball"},
	'K': {true, "Strike (unknown type)"},
	'L': {true, "Foul Bunt"},
	'M': {true, "Missed Bunt Attempt"},
	'O': {true, "Foul Tip on Bunt"},
	'P': {true, "Pitchout"},
	'Q': {true, "Swinging on Pitchout"},
	'R': {true, "Foul Ball on Pitchout"},
	'S': {true, "Swinging Strike"},
	'T': {true, "Foul Tip"},
	'U': {true, "Unknown or Missed Pitch"},
	'V': {true, "Called Ball (Pitcher went to his mouth)"},
	'X': {true, "Ball in play"},
	'Y': {true, "Ball in play on pitchout"},
	'N': {false, "No Pitch (on balks and interference calls)"},
	'.': {false, "Play not involving batter"},
	'*': {false, "Next pitch blocked by catcher"},
	'>': {false, "Runner going on the pitch"},
	'1': {false, "Pickoff throw to first"},
	'2': {false, "Pickoff throw to second"},
	'3': {false, "Pickoff throw to third"},
	'+': {false, "Pickoff throw by the catcher"},
}

const (
	strikeCodes = "CKLMOQST"
	foulCodes   = "FR"
	ballCodes   = "BIPV"
	inPlayCodes = "XY"
	endingCodes = "XHY"
)

// cleanSequence drops the markers the boxscore adds for pitches carried
// over from a previous event.
func cleanSequence(seq string) string {
	return strings.ReplaceAll(seq, "^", "")
}

// pitchCount counts the pitches in a sequence. An unknown code, including
// U, is reported as an error alongside the count.
func pitchCount(seq string) (int, error) {
	count := 0
	var bad []string
	for _, r := range cleanSequence(seq) {
		code, ok := pitchCodes[r]
		if !ok {
			bad = append(bad, string(r))
			continue
		}
		if r == 'U' {
			bad = append(bad, "U")
		}
		if code.counts {
			count++
		}
	}
	if len(bad) > 0 {
		return count, fmt.Errorf("unknown pitch code %s in sequence %q", strings.Join(bad, ","), seq)
	}
	return count, nil
}

// lastPitchCode is the final code that counts as a pitch, or 0.
func lastPitchCode(seq string) rune {
	var last rune
	for _, r := range cleanSequence(seq) {
		if code, ok := pitchCodes[r]; ok && code.counts {
			last = r
		}
	}
	return last
}

// sequenceEndsAtBat reports whether the sequence alone resolves the at-bat:
// a ball in play or hit batter, three strikes or four balls.
func sequenceEndsAtBat(seq string) bool {
	if last := lastPitchCode(seq); last != 0 && strings.ContainsRune(endingCodes, last) {
		return true
	}
	balls, strikes := 0, 0
	for _, r := range cleanSequence(seq) {
		switch {
		case strings.ContainsRune(strikeCodes, r):
			strikes++
		case strings.ContainsRune(foulCodes, r):
			if strikes < 2 {
				strikes++
			}
		case strings.ContainsRune(ballCodes, r):
			balls++
		}
	}
	return strikes >= 3 || balls >= 4
}

func endsInPlay(seq string) bool {
	last := lastPitchCode(seq)
	return last != 0 && strings.ContainsRune(inPlayCodes, last)
}
