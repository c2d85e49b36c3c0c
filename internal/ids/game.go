// Package ids parses and builds the identifiers shared by play-by-play,
// PitchFX and the combined game record.
package ids

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/util"
)

var (
	bbrefGameRe  = regexp.MustCompile(`^([A-Z]{3})(\d{4})(\d{2})(\d{2})([0-2])$`)
	brooksGameRe = regexp.MustCompile(`^gid_(\d{4})_(\d{2})_(\d{2})_([a-z]{3})mlb_([a-z]{3})mlb_([1-2])$`)
)

// GameID identifies a game the way the boxscore site does: home team, date
// and a doubleheader index (0 single game, 1 and 2 doubleheader games).
type GameID struct {
	HomeTeam string
	Date     time.Time
	Index    int
}

// ParseGameID parses ids such as CHA201906010.
func ParseGameID(s string) (GameID, error) {
	m := bbrefGameRe.FindStringSubmatch(s)
	if m == nil {
		return GameID{}, errors.Wrapf(util.ErrMalformedID, "game id %q", s)
	}
	date, err := parseDate(m[2], m[3], m[4])
	if err != nil {
		return GameID{}, errors.Wrapf(util.ErrMalformedID, "game id %q: %v", s, err)
	}
	index, _ := strconv.Atoi(m[5])
	return GameID{HomeTeam: m[1], Date: date, Index: index}, nil
}

// NewGameID builds and validates a game id.
func NewGameID(homeTeam string, date time.Time, index int) (GameID, error) {
	g := GameID{HomeTeam: homeTeam, Date: truncateDate(date), Index: index}
	if err := g.Validate(); err != nil {
		return GameID{}, err
	}
	return g, nil
}

// Validate checks every part against the game id grammar.
func (g GameID) Validate() error {
	if !isTeamCode(g.HomeTeam) {
		return errors.Wrapf(util.ErrMalformedID, "home team %q", g.HomeTeam)
	}
	if g.Index < 0 || g.Index > 2 {
		return errors.Wrapf(util.ErrMalformedID, "game index %d", g.Index)
	}
	if g.Date.IsZero() || g.Date.Year() < 1000 || g.Date.Year() > 9999 {
		return errors.Wrapf(util.ErrMalformedID, "game date %v", g.Date)
	}
	return nil
}

func (g GameID) String() string {
	return fmt.Sprintf("%s%s%d", g.HomeTeam, g.Date.Format("20060102"), g.Index)
}

// IsDoubleheader reports whether the id names one game of a doubleheader.
func (g GameID) IsDoubleheader() bool {
	return g.Index > 0
}

// Season is the calendar year of the game.
func (g GameID) Season() int {
	return g.Date.Year()
}

// Brooks converts to the PitchFX game id. The away team may be given in
// either dialect.
func (g GameID) Brooks(awayTeam string) (BrooksGameID, error) {
	if err := g.Validate(); err != nil {
		return BrooksGameID{}, err
	}
	if !isTeamCode(awayTeam) {
		return BrooksGameID{}, errors.Wrapf(util.ErrMalformedID, "away team %q", awayTeam)
	}
	number := g.Index
	if number == 0 {
		number = 1
	}
	return BrooksGameID{
		Date:     g.Date,
		AwayTeam: BrooksTeamID(awayTeam),
		HomeTeam: BrooksTeamID(g.HomeTeam),
		Number:   number,
	}, nil
}

// BrooksGameID identifies a game the way PitchFX does, e.g.
// gid_2019_06_01_detmlb_chamlb_1. Team codes are stored upper case.
type BrooksGameID struct {
	Date     time.Time
	AwayTeam string
	HomeTeam string
	Number   int
}

// ParseBrooksGameID parses a PitchFX game id.
func ParseBrooksGameID(s string) (BrooksGameID, error) {
	m := brooksGameRe.FindStringSubmatch(s)
	if m == nil {
		return BrooksGameID{}, errors.Wrapf(util.ErrMalformedID, "brooks game id %q", s)
	}
	date, err := parseDate(m[1], m[2], m[3])
	if err != nil {
		return BrooksGameID{}, errors.Wrapf(util.ErrMalformedID, "brooks game id %q: %v", s, err)
	}
	number, _ := strconv.Atoi(m[6])
	return BrooksGameID{
		Date:     date,
		AwayTeam: strings.ToUpper(m[4]),
		HomeTeam: strings.ToUpper(m[5]),
		Number:   number,
	}, nil
}

func (b BrooksGameID) String() string {
	return fmt.Sprintf("gid_%s_%smlb_%smlb_%d",
		b.Date.Format("2006_01_02"), strings.ToLower(b.AwayTeam), strings.ToLower(b.HomeTeam), b.Number)
}

// BBRef converts to the bbref game id. PitchFX numbers single games 1, so
// the caller must say whether the home team played a doubleheader that day.
func (b BrooksGameID) BBRef(doubleheader bool) (GameID, error) {
	if b.Number < 1 || b.Number > 2 {
		return GameID{}, errors.Wrapf(util.ErrMalformedID, "brooks game number %d", b.Number)
	}
	index := b.Number
	if !doubleheader {
		if b.Number != 1 {
			return GameID{}, errors.Wrapf(util.ErrMalformedID,
				"brooks game %s is game %d but no doubleheader was played", b, b.Number)
		}
		index = 0
	}
	return NewGameID(BBRefTeamID(b.HomeTeam), b.Date, index)
}

func parseDate(year, month, day string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date %s-%s-%s", year, month, day)
	}
	return t, nil
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isTeamCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
