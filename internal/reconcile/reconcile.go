// Package reconcile joins the play-by-play table of a game with its tracked
// pitches, classifies every at-bat and builds the combined game record with
// its audits.
package reconcile

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/pitchfx"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// ProgressSink receives progress updates for one game.
type ProgressSink interface {
	GameProgress(gameID string, percent float64)
}

// GameInput is everything the reconciler reads for one game. Logs should
// already have their patch list applied.
type GameInput struct {
	Boxscore model.Boxscore
	Logs     []model.PitchFxLog
}

// Reconciler builds combined game records.
type Reconciler struct {
	sink ProgressSink
}

// New creates a reconciler. sink may be nil.
func New(sink ProgressSink) *Reconciler {
	return &Reconciler{sink: sink}
}

func (r *Reconciler) progress(gameID string, percent float64) {
	if r.sink != nil {
		r.sink.GameProgress(gameID, percent)
	}
}

// Reconcile combines one game. Inputs are not modified. The only error is
// a malformed id in either source.
func (r *Reconciler) Reconcile(in GameInput) (*model.CombinedGame, error) {
	box := in.Boxscore
	game, err := ids.ParseGameID(box.BBRefGameID)
	if err != nil {
		return nil, err
	}
	gameID := game.String()
	r.progress(gameID, 0)

	bbGame, err := game.Brooks(box.AwayTeamData.TeamIDBR)
	if err != nil {
		return nil, err
	}
	atBats, err := buildAtBats(game, box.AwayTeamData.TeamIDBR, box.PlayByPlay, box.PlayerIDDict)
	if err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	r.progress(gameID, 20)

	records := pitchfx.Flatten(in.Logs)
	start := parseGameStart(box.GameMeta.GameStartTime)
	first, err := pitchfx.Normalize(records, pitchfx.Options{GameStart: start})
	if err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	pins, err := alignGroups(atBats, first.Records)
	if err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	expected := make(map[string]int, len(atBats))
	for _, pa := range atBats {
		expected[pa.id.String()] = pa.expected
	}
	norm, err := pitchfx.Normalize(records, pitchfx.Options{
		GameStart:      first.GameStart,
		ExpectedCounts: expected,
		Instances:      pins,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	r.progress(gameID, 50)

	groups := make(map[string][]model.PitchFx)
	for _, p := range norm.Records {
		groups[p.AtBatID] = append(groups[p.AtBatID], p)
	}

	apps := newPitchAppSet(game, &box)
	if err := apps.addStats(&box); err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	if err := apps.addLogs(in.Logs); err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}

	combined := &model.CombinedGame{
		GameID:         gameID,
		BBGameID:       bbGame.String(),
		BoxscoreURL:    box.BoxscoreURL,
		GameMeta:       box.GameMeta,
		DuplicateGUIDs: []string{},
		RemovedPitchFx: make(map[string]map[string]model.RemovedAtBat),
		InvalidPitchFx: make(map[string]map[string]model.InvalidAtBat),
		PlayerIDDict:   make(map[string]model.PlayerInfo, len(box.PlayerIDDict)),
	}
	for k, v := range box.PlayerIDDict {
		combined.PlayerIDDict[k] = v
	}
	if combined.GameMeta.GameStartTime == "" && !norm.GameStart.IsZero() {
		combined.GameMeta.GameStartTime = ids.InEastern(norm.GameStart).Format(time.RFC3339)
	}

	innings := make(map[string]*model.HalfInning)
	var inningOrder []ids.InningID
	var combinedAtBats []model.AtBat
	for _, pa := range atBats {
		key := pa.id.String()
		recs := groups[key]
		delete(groups, key)
		pfxABID := 0
		if len(recs) > 0 {
			pfxABID = recs[0].ABID
		}
		res := combineAtBat(pa, recs, pfxABID)
		combinedAtBats = append(combinedAtBats, res.atBat)

		inningKey := pa.inning.String()
		inning, ok := innings[inningKey]
		if !ok {
			inning = &model.HalfInning{
				InningID:    inningKey,
				InningLabel: pa.inning.Label(),
				Half:        string(pa.inning.Half),
			}
			innings[inningKey] = inning
			inningOrder = append(inningOrder, pa.inning)
		}
		inning.Events = append(inning.Events, res.atBat)
		addAtBat(&inning.Audit, res.atBat)

		app := apps.get(pa.id.PitchAppID(), apps.isHome(pa.id.PitcherTeam))
		addAtBat(&app.counts, res.atBat)
		if len(res.removed) > 0 {
			addRemoved(combined.RemovedPitchFx, res.atBat.InningID, res.atBat.AtBatID, res.atBat.PitchAppID, res.removed)
		}
	}

	invalid, err := invalidAtBats(groups, box.PlayerIDDict)
	if err != nil {
		return nil, errors.Wrapf(err, "game %s", gameID)
	}
	for _, v := range invalid {
		if combined.InvalidPitchFx[v.InningID] == nil {
			combined.InvalidPitchFx[v.InningID] = make(map[string]model.InvalidAtBat)
		}
		combined.InvalidPitchFx[v.InningID][v.AtBatID] = v
		id, _ := ids.ParseAtBatID(v.AtBatID)
		app := apps.get(id.PitchAppID(), apps.isHome(id.PitcherTeam))
		addInvalid(&app.counts, v)
		if inning, ok := innings[v.InningID]; ok {
			addInvalid(&inning.Audit, v)
		}
	}

	for _, d := range norm.Deleted {
		if d.AtBatID != "" {
			addRemoved(combined.RemovedPitchFx, d.InningID, d.AtBatID, d.PitchAppID, []model.PitchFx{d})
		}
	}

	seen := make(map[string]bool)
	for _, d := range norm.Duplicates {
		if id, err := ids.ParsePitchAppID(d.PitchAppID); err == nil {
			apps.get(id, apps.isHome(d.PitcherTeamIDBB)).counts.DuplicatePitchFxRemovedCount++
		}
		guid := d.PlayGUID
		if guid == "" {
			guid = d.ParkSvID
		}
		if !seen[guid] {
			seen[guid] = true
			combined.DuplicateGUIDs = append(combined.DuplicateGUIDs, guid)
		}
	}
	sort.Strings(combined.DuplicateGUIDs)

	sort.SliceStable(inningOrder, func(i, j int) bool { return inningOrder[i].Less(inningOrder[j]) })
	combined.Innings = make([]model.HalfInning, 0, len(inningOrder))
	for _, id := range inningOrder {
		combined.Innings = append(combined.Innings, *innings[id.String()])
	}

	away, home := apps.build(box.PlayerIDDict)
	combined.AwayTeamData = teamData(box.AwayTeamData, away)
	combined.HomeTeamData = teamData(box.HomeTeamData, home)
	combined.Audit = gameAudit(combined.PitchApps(), combinedAtBats, invalid, &box)

	r.progress(gameID, 100)
	return combined, nil
}

// invalidAtBats turns the tracking at-bats no play-by-play at-bat claimed
// into the invalid bucket.
func invalidAtBats(groups map[string][]model.PitchFx, players map[string]model.PlayerInfo) ([]model.InvalidAtBat, error) {
	names := make(map[int]string, len(players))
	for _, info := range players {
		names[info.MLBID] = info.Name
	}

	out := make([]model.InvalidAtBat, 0, len(groups))
	for key, recs := range groups {
		id, err := ids.ParseAtBatID(key)
		if err != nil {
			return nil, errors.Wrapf(util.ErrMalformedID, "tracked at-bat %q", key)
		}
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].ABCount != recs[j].ABCount {
				return recs[i].ABCount < recs[j].ABCount
			}
			return recs[i].SecondsSinceGameStart < recs[j].SecondsSinceGameStart
		})
		audit := model.AtBatAudit{
			PitchCountBBRef:     0,
			MissingPitchNumbers: []int{},
			ExtraPitchNumbers:   []int{},
			Classification:      model.ClassInvalid,
		}
		for _, p := range recs {
			if p.IsOutOfSequence {
				audit.ExtraPitchFxCount++
				audit.ExtraPitchNumbers = append(audit.ExtraPitchNumbers, p.ABCount)
				continue
			}
			audit.PitchCountPitchFx++
			if p.IsPatched {
				audit.PatchedPitchFxCount++
			}
		}
		v := model.InvalidAtBat{
			AtBatID:      key,
			InningID:     id.InningID().String(),
			PitchAppID:   id.PitchAppID().String(),
			PfxABID:      recs[0].ABID,
			PitcherIDMLB: id.PitcherID,
			PitcherName:  firstNonEmpty(names[id.PitcherID], recs[0].PitcherName),
			BatterIDMLB:  id.BatterID,
			BatterName:   firstNonEmpty(names[id.BatterID], recs[0].BatterName),
			Audit:        audit,
			PitchFx:      recs,
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AtBatID < out[j].AtBatID })
	return out, nil
}

func addRemoved(bucket map[string]map[string]model.RemovedAtBat, inningID, atBatID, pitchAppID string, recs []model.PitchFx) {
	if bucket[inningID] == nil {
		bucket[inningID] = make(map[string]model.RemovedAtBat)
	}
	entry, ok := bucket[inningID][atBatID]
	if !ok {
		entry = model.RemovedAtBat{AtBatID: atBatID, InningID: inningID, PitchAppID: pitchAppID}
	}
	entry.PitchFx = append(entry.PitchFx, recs...)
	bucket[inningID][atBatID] = entry
}

func teamData(t model.TeamData, stats []model.PitchAppStats) model.CombinedTeamData {
	if stats == nil {
		stats = []model.PitchAppStats{}
	}
	return model.CombinedTeamData{
		TeamIDBR:       t.TeamIDBR,
		TotalRuns:      t.TotalRuns,
		TotalHits:      t.TotalHits,
		TotalErrors:    t.TotalErrors,
		TeamWon:        t.TeamWon,
		StartingLineup: t.StartingLineup,
		BattingStats:   t.BattingStats,
		PitchingStats:  stats,
	}
}

// parseGameStart reads the boxscore start time. Anything unparseable
// leaves the start to be inferred from the first pitch.
func parseGameStart(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		util.DebugLog("game start %q not RFC3339, inferring from first pitch", s)
		return time.Time{}
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
