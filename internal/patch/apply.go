package patch

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// PlayerLookup resolves a tracking player id when a patch creates a
// pitch-app the game did not have.
type PlayerLookup interface {
	PlayerByMLBID(mlbID int) (bbrefID string, info model.PlayerInfo, err error)
}

// Engine applies patch lists to the tracking logs of a game.
type Engine struct {
	players PlayerLookup
}

// NewEngine creates an engine. players may be nil, in which case new
// pitch-apps are resolved from the boxscore player table only.
func NewEngine(players PlayerLookup) *Engine {
	return &Engine{players: players}
}

// Apply returns patched copies of logs. Patches run in list order; if any
// target does not resolve to exactly one record the whole list is rejected
// and nothing is returned.
func (e *Engine) Apply(logs []model.PitchFxLog, list *List, box *model.Boxscore) ([]model.PitchFxLog, error) {
	out := model.CloneLogs(logs)
	if list.Empty() {
		return out, nil
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}

	var records []model.PitchFx
	for _, l := range out {
		records = append(records, l.PitchFx...)
	}
	for i, p := range list.Patches {
		idx, err := findTarget(records, p)
		if err != nil {
			return nil, errors.Wrapf(err, "patch %d of %s", i, list.GameID)
		}
		r := &records[idx]
		switch p.Kind {
		case KindChangeBatter:
			r.BatterID = p.NewBatterID
			if p.NewBatterName != "" {
				r.BatterName = p.NewBatterName
			}
		case KindChangePitcher:
			r.PitchAppID = p.NewPitchAppID
			r.PitcherID = p.NewPitcherID
			if p.NewPitcherName != "" {
				r.PitcherName = p.NewPitcherName
			}
		case KindDelete:
			r.IsDeleted = true
		}
		r.IsPatched = true
	}
	return e.regroup(out, records, box)
}

// findTarget locates the one record a patch names. A pitcher patch also
// matches a record it already moved, so a list can be applied again.
func findTarget(records []model.PitchFx, p Patch) (int, error) {
	found := -1
	count := 0
	for i, r := range records {
		if r.ParkSvID != p.ParkSvID {
			continue
		}
		if r.PitchAppID == p.PitchAppID || (p.Kind == KindChangePitcher && r.PitchAppID == p.NewPitchAppID) {
			found = i
			count++
		}
	}
	if count != 1 {
		return -1, errors.Wrapf(util.ErrPatchTargetAmbiguous,
			"%d records match pitch app %s at %s", count, p.PitchAppID, p.ParkSvID)
	}
	return found, nil
}

// regroup rebuilds the logs around the patched records: each log gets its
// records in time order and a fresh histogram, and pitch-apps created by a
// patch get a synthesized log.
func (e *Engine) regroup(logs []model.PitchFxLog, records []model.PitchFx, box *model.Boxscore) ([]model.PitchFxLog, error) {
	groups := make(map[string][]model.PitchFx)
	for _, r := range records {
		groups[r.PitchAppID] = append(groups[r.PitchAppID], r)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].ParkSvID < g[j].ParkSvID })
	}

	known := make(map[string]bool, len(logs))
	for i := range logs {
		l := &logs[i]
		known[l.PitchAppID] = true
		l.PitchFx = groups[l.PitchAppID]
		if l.PitchFx == nil {
			l.PitchFx = []model.PitchFx{}
		}
		l.PitchCountByInning, l.TotalPitchCount = histogram(l.PitchFx)
	}

	var created []string
	for id := range groups {
		if !known[id] {
			created = append(created, id)
		}
	}
	sort.Strings(created)
	for _, id := range created {
		l, err := e.synthesize(id, groups[id], box)
		if err != nil {
			return nil, err
		}
		util.DebugLog("patch: created pitch app %s for %s", id, l.PitcherName)
		logs = append(logs, l)
	}
	return logs, nil
}

// histogram counts the live records per inning, innings ascending.
func histogram(records []model.PitchFx) ([]model.InningCount, int) {
	byInning := make(map[int]int)
	total := 0
	for _, r := range records {
		if r.IsDeleted {
			continue
		}
		byInning[r.Inning]++
		total++
	}
	out := make([]model.InningCount, 0, len(byInning))
	for inning, n := range byInning {
		out = append(out, model.InningCount{Inning: inning, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Inning < out[j].Inning })
	return out, total
}

func (e *Engine) synthesize(pitchAppID string, records []model.PitchFx, box *model.Boxscore) (model.PitchFxLog, error) {
	app, err := ids.ParsePitchAppID(pitchAppID)
	if err != nil {
		return model.PitchFxLog{}, err
	}
	info, err := e.lookup(app.PitcherID, box)
	if err != nil {
		return model.PitchFxLog{}, errors.Wrapf(err, "new pitch app %s", pitchAppID)
	}

	away, home := box.AwayTeamData.TeamIDBR, box.HomeTeamData.TeamIDBR
	pitcherTeam := ids.BrooksTeamID(info.TeamIDBR)
	if info.TeamIDBR == "" {
		pitcherTeam = records[0].PitcherTeamIDBB
	}
	opponent := ids.BrooksTeamID(home)
	if pitcherTeam == ids.BrooksTeamID(home) {
		opponent = ids.BrooksTeamID(away)
	}
	bbGame, err := app.Game.Brooks(away)
	if err != nil {
		return model.PitchFxLog{}, err
	}

	l := model.PitchFxLog{
		PitchAppID:       pitchAppID,
		BBRefGameID:      app.Game.String(),
		BBGameID:         bbGame.String(),
		PitcherName:      info.Name,
		PitcherID:        app.PitcherID,
		PitcherTeamIDBB:  pitcherTeam,
		OpponentTeamIDBB: opponent,
		PitchFx:          records,
	}
	l.PitchCountByInning, l.TotalPitchCount = histogram(records)
	return l, nil
}

func (e *Engine) lookup(mlbID int, box *model.Boxscore) (model.PlayerInfo, error) {
	if e.players != nil {
		_, info, err := e.players.PlayerByMLBID(mlbID)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, util.ErrNotFound) {
			return model.PlayerInfo{}, err
		}
	}
	for _, info := range box.PlayerIDDict {
		if info.MLBID == mlbID {
			return info, nil
		}
	}
	return model.PlayerInfo{}, errors.Wrapf(util.ErrNotFound, "player with mlb id %d", mlbID)
}
