package ids

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/util"
)

// Half of an inning.
type Half string

const (
	Top    Half = "TOP"
	Bottom Half = "BOT"
)

var (
	pitchAppRe = regexp.MustCompile(`^([A-Z]{3}\d{9})_(\d{6})$`)
	atBatRe    = regexp.MustCompile(`^([A-Z]{3}\d{9})_(\d{2})_([A-Z]{3})_(\d{6})_([A-Z]{3})_(\d{6})_(\d)$`)
	inningRe   = regexp.MustCompile(`^([A-Z]{3}\d{9})_INN_(TOP|BOT)(\d{2})$`)
	labelRe    = regexp.MustCompile(`^([tb])(\d{1,2})$`)
)

// PitchAppID identifies one pitcher's appearance in one game.
type PitchAppID struct {
	Game      GameID
	PitcherID int
}

// ParsePitchAppID parses ids such as CHA201906010_641835.
func ParsePitchAppID(s string) (PitchAppID, error) {
	m := pitchAppRe.FindStringSubmatch(s)
	if m == nil {
		return PitchAppID{}, errors.Wrapf(util.ErrMalformedID, "pitch app id %q", s)
	}
	game, err := ParseGameID(m[1])
	if err != nil {
		return PitchAppID{}, errors.Wrapf(err, "pitch app id %q", s)
	}
	pid, _ := strconv.Atoi(m[2])
	return PitchAppID{Game: game, PitcherID: pid}, nil
}

// NewPitchAppID builds and validates a pitch-app id.
func NewPitchAppID(game GameID, pitcherID int) (PitchAppID, error) {
	if err := game.Validate(); err != nil {
		return PitchAppID{}, err
	}
	if !isPlayerID(pitcherID) {
		return PitchAppID{}, errors.Wrapf(util.ErrMalformedID, "pitcher id %d", pitcherID)
	}
	return PitchAppID{Game: game, PitcherID: pitcherID}, nil
}

func (p PitchAppID) String() string {
	return fmt.Sprintf("%s_%06d", p.Game, p.PitcherID)
}

// AtBatID identifies one plate appearance. The instance separates repeat
// meetings of the same pitcher and batter in the same inning.
type AtBatID struct {
	Game        GameID
	Inning      int
	PitcherTeam string
	PitcherID   int
	BatterTeam  string
	BatterID    int
	Instance    int
}

// ParseAtBatID parses ids such as CHA201906010_01_DET_641835_CHA_660162_0.
func ParseAtBatID(s string) (AtBatID, error) {
	m := atBatRe.FindStringSubmatch(s)
	if m == nil {
		return AtBatID{}, errors.Wrapf(util.ErrMalformedID, "at-bat id %q", s)
	}
	game, err := ParseGameID(m[1])
	if err != nil {
		return AtBatID{}, errors.Wrapf(err, "at-bat id %q", s)
	}
	inning, _ := strconv.Atoi(m[2])
	pitcher, _ := strconv.Atoi(m[4])
	batter, _ := strconv.Atoi(m[6])
	instance, _ := strconv.Atoi(m[7])
	ab := AtBatID{
		Game:        game,
		Inning:      inning,
		PitcherTeam: m[3],
		PitcherID:   pitcher,
		BatterTeam:  m[5],
		BatterID:    batter,
		Instance:    instance,
	}
	if err := ab.Validate(); err != nil {
		return AtBatID{}, errors.Wrapf(err, "at-bat id %q", s)
	}
	return ab, nil
}

// Validate checks every part against the at-bat id grammar.
func (a AtBatID) Validate() error {
	if err := a.Game.Validate(); err != nil {
		return err
	}
	if a.Inning < 1 || a.Inning > 99 {
		return errors.Wrapf(util.ErrMalformedID, "inning %d", a.Inning)
	}
	if !isTeamCode(a.PitcherTeam) || !isTeamCode(a.BatterTeam) {
		return errors.Wrapf(util.ErrMalformedID, "teams %q/%q", a.PitcherTeam, a.BatterTeam)
	}
	if a.PitcherTeam == a.BatterTeam {
		return errors.Wrapf(util.ErrMalformedID, "pitcher and batter both on %s", a.PitcherTeam)
	}
	if !isPlayerID(a.PitcherID) || !isPlayerID(a.BatterID) {
		return errors.Wrapf(util.ErrMalformedID, "player ids %d/%d", a.PitcherID, a.BatterID)
	}
	if a.Instance < 0 || a.Instance > 9 {
		return errors.Wrapf(util.ErrMalformedID, "instance %d", a.Instance)
	}
	return nil
}

func (a AtBatID) String() string {
	return fmt.Sprintf("%s_%d", a.Base(), a.Instance)
}

// Base is the id without its instance suffix.
func (a AtBatID) Base() string {
	return fmt.Sprintf("%s_%02d_%s_%06d_%s_%06d",
		a.Game, a.Inning, a.PitcherTeam, a.PitcherID, a.BatterTeam, a.BatterID)
}

// Half is derived from the pitching team: the home team pitches the top.
func (a AtBatID) Half() Half {
	if a.PitcherTeam == BrooksTeamID(a.Game.HomeTeam) || a.PitcherTeam == a.Game.HomeTeam {
		return Top
	}
	return Bottom
}

// InningID is the half inning the at-bat belongs to.
func (a AtBatID) InningID() InningID {
	return InningID{Game: a.Game, Half: a.Half(), Inning: a.Inning}
}

// PitchAppID is the pitch-app of the pitcher facing the batter.
func (a AtBatID) PitchAppID() PitchAppID {
	return PitchAppID{Game: a.Game, PitcherID: a.PitcherID}
}

// WithInstance returns a copy with another instance number.
func (a AtBatID) WithInstance(n int) AtBatID {
	a.Instance = n
	return a
}

// InningID identifies one half inning.
type InningID struct {
	Game   GameID
	Half   Half
	Inning int
}

// ParseInningID parses ids such as CHA201906010_INN_TOP01.
func ParseInningID(s string) (InningID, error) {
	m := inningRe.FindStringSubmatch(s)
	if m == nil {
		return InningID{}, errors.Wrapf(util.ErrMalformedID, "inning id %q", s)
	}
	game, err := ParseGameID(m[1])
	if err != nil {
		return InningID{}, errors.Wrapf(err, "inning id %q", s)
	}
	inning, _ := strconv.Atoi(m[3])
	if inning < 1 {
		return InningID{}, errors.Wrapf(util.ErrMalformedID, "inning id %q", s)
	}
	return InningID{Game: game, Half: Half(m[2]), Inning: inning}, nil
}

// InningFromLabel builds an inning id from a play-by-play label such as t1 or b10.
func InningFromLabel(game GameID, label string) (InningID, error) {
	m := labelRe.FindStringSubmatch(label)
	if m == nil {
		return InningID{}, errors.Wrapf(util.ErrMalformedID, "inning label %q", label)
	}
	inning, _ := strconv.Atoi(m[2])
	if inning < 1 {
		return InningID{}, errors.Wrapf(util.ErrMalformedID, "inning label %q", label)
	}
	half := Top
	if m[1] == "b" {
		half = Bottom
	}
	return InningID{Game: game, Half: half, Inning: inning}, nil
}

func (i InningID) String() string {
	return fmt.Sprintf("%s_INN_%s%02d", i.Game, i.Half, i.Inning)
}

// Label is the play-by-play form, t1 or b1.
func (i InningID) Label() string {
	if i.Half == Top {
		return fmt.Sprintf("t%d", i.Inning)
	}
	return fmt.Sprintf("b%d", i.Inning)
}

// Less orders half innings in game order.
func (i InningID) Less(o InningID) bool {
	if i.Inning != o.Inning {
		return i.Inning < o.Inning
	}
	return i.Half == Top && o.Half == Bottom
}

func isPlayerID(id int) bool {
	return id > 0 && id <= 999999
}
