package reconcile

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// addAtBat folds one combined at-bat into a set of counters.
func addAtBat(c *model.AuditCounts, ab model.AtBat) {
	a := ab.Audit
	c.PitchCountBBRef += a.PitchCountBBRef
	c.PitchCountPitchFx += a.PitchCountPitchFx
	c.BattersFacedBBRef++
	if a.PitchCountPitchFx > 0 {
		c.BattersFacedPitchFx++
	}
	c.PatchedPitchFxCount += a.PatchedPitchFxCount
	c.MissingPitchFxCount += a.MissingPitchFxCount
	c.ExtraPitchFxCount += a.ExtraPitchFxCount
	c.ExtraPitchFxRemovedCount += a.RemovedPitchFxCount

	switch a.Classification {
	case model.ClassComplete:
		c.TotalAtBatsPitchFxComplete++
	case model.ClassPatched:
		c.TotalAtBatsPatchedPitchFx++
	case model.ClassMissing:
		c.TotalAtBatsMissingPitchFx++
	case model.ClassExtra:
		c.TotalAtBatsExtraPitchFx++
	case model.ClassExtraRemoved:
		c.TotalAtBatsExtraPitchFxRemoved++
	case model.ClassError:
		c.TotalAtBatsPitchFxError++
	case model.ClassInvalid:
		c.TotalAtBatsInvalidPitchFx++
		c.InvalidPitchFxCount += a.PitchCountPitchFx + a.ExtraPitchFxCount
	}
}

// addInvalid folds a tracking at-bat with no play-by-play counterpart.
func addInvalid(c *model.AuditCounts, v model.InvalidAtBat) {
	c.InvalidPitchFxCount += len(v.PitchFx)
	c.TotalAtBatsInvalidPitchFx++
}

// pitchApp collects everything known about one pitch-app before the stat
// block is built.
type pitchApp struct {
	id       ids.PitchAppID
	home     bool
	bbrefID  string
	stats    *model.PitchingStats
	log      *model.PitchFxLog
	counts   model.AuditCounts
	missing  bool
	name     string
	position int
}

type pitchAppSet struct {
	game    ids.GameID
	home    string
	byMLBID map[int]string
	apps    map[string]*pitchApp
	next    int
}

func newPitchAppSet(game ids.GameID, box *model.Boxscore) *pitchAppSet {
	s := &pitchAppSet{
		game:    game,
		home:    ids.BrooksTeamID(box.HomeTeamData.TeamIDBR),
		byMLBID: make(map[int]string, len(box.PlayerIDDict)),
		apps:    make(map[string]*pitchApp),
	}
	for bbrefID, info := range box.PlayerIDDict {
		s.byMLBID[info.MLBID] = bbrefID
	}
	return s
}

func (s *pitchAppSet) get(id ids.PitchAppID, home bool) *pitchApp {
	key := id.String()
	app, ok := s.apps[key]
	if !ok {
		app = &pitchApp{id: id, home: home, bbrefID: s.byMLBID[id.PitcherID], position: s.next}
		s.next++
		s.apps[key] = app
	}
	return app
}

func (s *pitchAppSet) isHome(brooksTeam string) bool {
	return brooksTeam == s.home
}

// addStats registers the boxscore pitching lines. They come first so the
// output keeps the boxscore order.
func (s *pitchAppSet) addStats(box *model.Boxscore) error {
	sides := []struct {
		stats []model.PitchingStats
		home  bool
	}{
		{box.AwayTeamData.PitchingStats, false},
		{box.HomeTeamData.PitchingStats, true},
	}
	for _, side := range sides {
		for i := range side.stats {
			st := side.stats[i]
			info, ok := box.PlayerIDDict[st.PlayerIDBR]
			if !ok || info.MLBID == 0 {
				return errors.Wrapf(util.ErrMalformedID, "pitching stats: no mlb id for %q", st.PlayerIDBR)
			}
			id, err := ids.NewPitchAppID(s.game, info.MLBID)
			if err != nil {
				return err
			}
			app := s.get(id, side.home)
			app.stats = &st
			app.bbrefID = st.PlayerIDBR
			app.name = info.Name
		}
	}
	return nil
}

func (s *pitchAppSet) addLogs(logs []model.PitchFxLog) error {
	for i := range logs {
		l := &logs[i]
		id, err := ids.ParsePitchAppID(l.PitchAppID)
		if err != nil {
			return err
		}
		app := s.get(id, s.isHome(l.PitcherTeamIDBB))
		app.log = l
		if app.name == "" {
			app.name = l.PitcherName
		}
	}
	return nil
}

// build renders the stat blocks, away side first, each side in
// registration order.
func (s *pitchAppSet) build(players map[string]model.PlayerInfo) (away, home []model.PitchAppStats) {
	apps := make([]*pitchApp, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].position < apps[j].position })

	for _, app := range apps {
		st := model.PitchAppStats{
			PitchAppID:         app.id.String(),
			PitcherIDBR:        app.bbrefID,
			PitcherIDMLB:       app.id.PitcherID,
			PitcherName:        app.name,
			NoPitchFxData:      app.log == nil || app.log.NoPitchFxData,
			PitchCountByInning: []model.InningCount{},
			Audit:              app.counts,
		}
		if st.PitcherName == "" {
			st.PitcherName = players[app.bbrefID].Name
		}
		if app.stats != nil {
			st.BBRefData = *app.stats
		}
		if app.log != nil && app.log.PitchCountByInning != nil {
			st.PitchCountByInning = append(st.PitchCountByInning, app.log.PitchCountByInning...)
		}
		if app.home {
			home = append(home, st)
		} else {
			away = append(away, st)
		}
	}
	return away, home
}

// gameAudit sums the pitch-app counters and decides the verdict.
func gameAudit(apps []model.PitchAppStats, atBats []model.AtBat, invalid []model.InvalidAtBat, box *model.Boxscore) model.GameAudit {
	var audit model.GameAudit
	noData := make(map[string]bool, len(apps))
	for _, app := range apps {
		audit.AuditCounts = audit.AuditCounts.Add(app.Audit)
		noData[app.PitchAppID] = app.NoPitchFxData
	}
	for _, side := range []model.TeamData{box.AwayTeamData, box.HomeTeamData} {
		for _, st := range side.PitchingStats {
			audit.PitchCountBBRefStatsTable += st.PitchCount
		}
	}
	audit.PitchCountMissingPitchFx = audit.MissingPitchFxCount

	audit.AtBatIDsPatchedPitchFx = []string{}
	audit.AtBatIDsMissingPitchFx = []string{}
	audit.AtBatIDsExtraPitchFx = []string{}
	audit.AtBatIDsExtraPitchFxRemoved = []string{}
	audit.AtBatIDsPitchFxError = []string{}
	audit.AtBatIDsInvalidPitchFx = []string{}

	audit.MissingPitchFxIsValid = true
	for _, ab := range atBats {
		switch ab.Audit.Classification {
		case model.ClassPatched:
			audit.AtBatIDsPatchedPitchFx = append(audit.AtBatIDsPatchedPitchFx, ab.AtBatID)
		case model.ClassMissing:
			audit.AtBatIDsMissingPitchFx = append(audit.AtBatIDsMissingPitchFx, ab.AtBatID)
			if !noData[ab.PitchAppID] {
				audit.MissingPitchFxIsValid = false
			}
		case model.ClassExtra:
			audit.AtBatIDsExtraPitchFx = append(audit.AtBatIDsExtraPitchFx, ab.AtBatID)
		case model.ClassExtraRemoved:
			audit.AtBatIDsExtraPitchFxRemoved = append(audit.AtBatIDsExtraPitchFxRemoved, ab.AtBatID)
		case model.ClassError:
			audit.AtBatIDsPitchFxError = append(audit.AtBatIDsPitchFxError, ab.AtBatID)
		case model.ClassInvalid:
			audit.AtBatIDsInvalidPitchFx = append(audit.AtBatIDsInvalidPitchFx, ab.AtBatID)
		}
	}
	for _, v := range invalid {
		audit.AtBatIDsInvalidPitchFx = append(audit.AtBatIDsInvalidPitchFx, v.AtBatID)
	}
	for _, list := range [][]string{
		audit.AtBatIDsPatchedPitchFx,
		audit.AtBatIDsMissingPitchFx,
		audit.AtBatIDsExtraPitchFx,
		audit.AtBatIDsExtraPitchFxRemoved,
		audit.AtBatIDsPitchFxError,
		audit.AtBatIDsInvalidPitchFx,
	} {
		sort.Strings(list)
	}

	audit.Verdict = verdict(audit)
	return audit
}

func verdict(a model.GameAudit) model.Classification {
	switch {
	case a.TotalAtBatsInvalidPitchFx > 0:
		return model.ClassInvalid
	case a.TotalAtBatsPitchFxError > 0:
		return model.ClassError
	case a.TotalAtBatsExtraPitchFx > 0:
		return model.ClassExtra
	case a.TotalAtBatsMissingPitchFx > 0 && !a.MissingPitchFxIsValid:
		return model.ClassMissing
	case a.TotalAtBatsPatchedPitchFx > 0:
		return model.ClassPatched
	default:
		return model.ClassComplete
	}
}
