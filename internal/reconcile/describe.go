package reconcile

import (
	"fmt"
	"strings"

	"github.com/franz/pitchfx-janitor/internal/model"
)

var pitchTypeNames = map[string]string{
	"CH": "Changeup",
	"CU": "Curveball",
	"EP": "Eephus",
	"FA": "Fastball",
	"FC": "Cutter",
	"FF": "4-Seam Fastball",
	"FO": "Forkball",
	"FS": "Splitter",
	"FT": "2-Seam Fastball",
	"IN": "Intentional Ball",
	"KC": "Knuckle Curve",
	"KN": "Knuckleball",
	"PO": "Pitchout",
	"SC": "Screwball",
	"SI": "Sinker",
	"SL": "Slider",
}

// describeAtBat renders the pitch sequence one step per line. Tracked
// pitches add speed and type; pass nil when tracking is incomplete.
func describeAtBat(pa *playAtBat, pitches []model.PitchFx) []model.SequenceStep {
	var others []model.PlayByPlayEvent
	for _, e := range pa.events {
		if e.TableRowNumber != pa.final.TableRowNumber {
			others = append(others, e)
		}
	}
	next := 0
	nextOther := func(fallback string) string {
		if next >= len(others) {
			return fallback
		}
		e := others[next]
		next++
		return "(" + strings.TrimRight(eventDescription(e), ".") + ")"
	}

	var steps []model.SequenceStep
	current := 0
	blocked := false
	for _, r := range pa.sequence {
		code, ok := pitchCodes[r]
		if !ok {
			steps = append(steps, model.SequenceStep{Outcome: fmt.Sprintf("Unknown pitch code %q", r)})
			continue
		}
		if r == '*' {
			blocked = true
			continue
		}
		if !code.counts {
			outcome := code.description
			if r == '.' {
				outcome = nextOther(outcome)
			}
			steps = append(steps, model.SequenceStep{Outcome: outcome})
			continue
		}

		current++
		step := model.SequenceStep{
			Label:   fmt.Sprintf("Pitch %d/%d", current, pa.expected),
			Outcome: code.description,
		}
		if current <= len(pitches) {
			p := pitches[current-1]
			if r == 'X' && p.PDes != "" && !strings.Contains(p.PDes, "missing_pdes") {
				step.Outcome = p.PDes
			}
			step.PitchDetail = fmt.Sprintf("%02.0fmph %s", p.StartSpeed, pitchTypeName(p.MLBAMPitchName))
		}
		if blocked {
			step.Outcome += " (pitch was blocked by catcher)"
			blocked = false
		}
		steps = append(steps, step)
	}
	for next < len(others) {
		steps = append(steps, model.SequenceStep{Outcome: nextOther("")})
	}
	return append(steps, model.SequenceStep{Label: "Result", Outcome: pa.final.PlayDescription})
}

func eventDescription(e model.PlayByPlayEvent) string {
	switch e.EventType {
	case model.EventAtBat:
		return e.PlayDescription
	case model.EventSubstitution:
		return e.SubDescription
	default:
		return e.Description
	}
}

func pitchTypeName(abbrev string) string {
	if name, ok := pitchTypeNames[abbrev]; ok {
		return name
	}
	return abbrev
}
