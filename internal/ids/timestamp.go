package ids

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/util"
)

// PitchTimestampLayout is the layout of park_sv_id values.
const PitchTimestampLayout = "060102_150405"

var (
	parkSvRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})$`)

	// Eastern is the zone timestamps are displayed in.
	Eastern = mustLoadLocation("America/New_York")
)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// ParsePitchTimestamp parses a park_sv_id as UTC. The tracking system
// occasionally writes 60 seconds; such values are clamped to 0 within the
// same minute.
func ParsePitchTimestamp(s string) (time.Time, error) {
	m := parkSvRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, errors.Wrapf(util.ErrMalformedID, "pitch timestamp %q", s)
	}
	n := make([]int, 6)
	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}
	year, month, day, hour, minute, second := 2000+n[0], n[1], n[2], n[3], n[4], n[5]
	if second >= 60 {
		second = 0
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, errors.Wrapf(util.ErrMalformedID, "pitch timestamp %q", s)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if int(t.Month()) != month || t.Day() != day {
		return time.Time{}, errors.Wrapf(util.ErrMalformedID, "pitch timestamp %q", s)
	}
	return t, nil
}

// FormatPitchTimestamp renders t in park_sv_id form.
func FormatPitchTimestamp(t time.Time) string {
	return t.UTC().Format(PitchTimestampLayout)
}

// InEastern converts a pitch time for display.
func InEastern(t time.Time) time.Time {
	return t.In(Eastern)
}

// InferGameStart estimates the first pitch of a game when the boxscore has
// no start time: the first pitch truncated to the minute, or one minute
// earlier when it was thrown exactly on the minute.
func InferGameStart(firstPitch time.Time) time.Time {
	if firstPitch.Second() == 0 {
		return firstPitch.Add(-time.Minute)
	}
	return firstPitch.Truncate(time.Minute)
}
