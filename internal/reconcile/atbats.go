package reconcile

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// playAtBat is one plate appearance built from play-by-play rows.
type playAtBat struct {
	id       ids.AtBatID
	inning   ids.InningID
	events   []model.PlayByPlayEvent
	first    model.PlayByPlayEvent
	final    model.PlayByPlayEvent
	sequence string
	expected int
	seqErr   error
	complete bool
	pitcher  model.PlayerInfo
	batter   model.PlayerInfo
}

type atBatBuilder struct {
	game    ids.GameID
	away    string
	players map[string]model.PlayerInfo
	atBats  []*playAtBat
	bases   map[string]int
}

// buildAtBats walks the play-by-play table in row order and cuts it into
// at-bats. Substitutions and other non-batter rows ride along with the
// at-bat they happened in.
func buildAtBats(game ids.GameID, awayTeam string, events []model.PlayByPlayEvent, players map[string]model.PlayerInfo) ([]*playAtBat, error) {
	sorted := append([]model.PlayByPlayEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TableRowNumber < sorted[j].TableRowNumber
	})

	b := &atBatBuilder{game: game, away: awayTeam, players: players, bases: make(map[string]int)}
	var pending []model.PlayByPlayEvent
	label := ""
	for _, e := range sorted {
		if e.InningLabel != label && len(pending) > 0 {
			var err error
			if pending, err = b.flush(pending); err != nil {
				return nil, err
			}
		}
		label = e.InningLabel
		pending = append(pending, e)
		if e.EventType == model.EventAtBat && atBatEnds(e) {
			if err := b.add(pending, true); err != nil {
				return nil, err
			}
			pending = nil
		}
	}
	if len(pending) > 0 {
		if _, err := b.flush(pending); err != nil {
			return nil, err
		}
	}
	return b.atBats, nil
}

// flush closes a half inning with unfinished rows. Rows holding an at-bat
// become an incomplete at-bat; trailing substitutions join the previous
// at-bat, or carry over when there is none yet.
func (b *atBatBuilder) flush(pending []model.PlayByPlayEvent) ([]model.PlayByPlayEvent, error) {
	for _, e := range pending {
		if e.EventType == model.EventAtBat {
			return nil, b.add(pending, false)
		}
	}
	if len(b.atBats) == 0 {
		return pending, nil
	}
	prev := b.atBats[len(b.atBats)-1]
	prev.events = append(prev.events, pending...)
	return nil, nil
}

func atBatEnds(e model.PlayByPlayEvent) bool {
	if sequenceEndsAtBat(e.PitchSequence) {
		return true
	}
	if e.OutsBeforePlay+strings.Count(e.RunsOutsResult, "O") >= 3 {
		return true
	}
	desc := strings.ToLower(e.PlayDescription)
	if cleanSequence(e.PitchSequence) == "" && strings.Contains(desc, "intentional walk") {
		return true
	}
	return strings.Contains(desc, "reached on interference")
}

func (b *atBatBuilder) add(events []model.PlayByPlayEvent, complete bool) error {
	var plays []model.PlayByPlayEvent
	for _, e := range events {
		if e.EventType == model.EventAtBat {
			plays = append(plays, e)
		}
	}
	first, final := plays[0], plays[len(plays)-1]

	inning, err := ids.InningFromLabel(b.game, final.InningLabel)
	if err != nil {
		return errors.Wrapf(err, "play-by-play row %d", final.TableRowNumber)
	}
	pitcher, err := b.player(final.PitcherIDBR, final.TableRowNumber)
	if err != nil {
		return err
	}
	batter, err := b.player(final.BatterIDBR, final.TableRowNumber)
	if err != nil {
		return err
	}

	pitchingTeam, battingTeam := b.game.HomeTeam, b.away
	if inning.Half == ids.Bottom {
		pitchingTeam, battingTeam = battingTeam, pitchingTeam
	}
	id := ids.AtBatID{
		Game:        b.game,
		Inning:      inning.Inning,
		PitcherTeam: ids.BrooksTeamID(pitchingTeam),
		PitcherID:   pitcher.MLBID,
		BatterTeam:  ids.BrooksTeamID(battingTeam),
		BatterID:    batter.MLBID,
	}
	id.Instance = b.bases[id.Base()]
	if err := id.Validate(); err != nil {
		return errors.Wrapf(err, "play-by-play row %d", final.TableRowNumber)
	}
	b.bases[id.Base()]++

	seq := cleanSequence(final.PitchSequence)
	count, seqErr := pitchCount(seq)
	b.atBats = append(b.atBats, &playAtBat{
		id:       id,
		inning:   inning,
		events:   append([]model.PlayByPlayEvent(nil), events...),
		first:    first,
		final:    final,
		sequence: seq,
		expected: count,
		seqErr:   seqErr,
		complete: complete,
		pitcher:  pitcher,
		batter:   batter,
	})
	return nil
}

func (b *atBatBuilder) player(bbrefID string, row int) (model.PlayerInfo, error) {
	info, ok := b.players[bbrefID]
	if !ok || info.MLBID == 0 {
		return model.PlayerInfo{}, errors.Wrapf(util.ErrMalformedID,
			"play-by-play row %d: no mlb id for player %q", row, bbrefID)
	}
	return info, nil
}
