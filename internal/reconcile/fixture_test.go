package reconcile

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
)

const testGame = "CHA201906010"

var testPlayers = map[string]model.PlayerInfo{
	"giolilu01": {Name: "Lucas Giolito", MLBID: 608337, TeamIDBR: "CHW"},
	"boydma01":  {Name: "Matthew Boyd", MLBID: 571510, TeamIDBR: "DET"},
	"castrha01": {Name: "Harold Castro", MLBID: 643256, TeamIDBR: "DET"},
	"candeje02": {Name: "Jeimer Candelario", MLBID: 600869, TeamIDBR: "DET"},
	"anderti01": {Name: "Tim Anderson", MLBID: 641313, TeamIDBR: "CHW"},
	"moncayo01": {Name: "Yoan Moncada", MLBID: 660162, TeamIDBR: "CHW"},
}

var pdesByCode = map[rune][2]string{
	'B': {"Ball", "B"},
	'C': {"Called Strike", "S"},
	'S': {"Swinging Strike", "S"},
	'F': {"Foul", "S"},
	'X': {"In play, out(s)", "X"},
	'I': {"Intent Ball", "B"},
	'H': {"Hit By Pitch", "B"},
}

// gameFixture builds a boxscore and the matching tracking logs one at-bat
// at a time.
type gameFixture struct {
	box   model.Boxscore
	logs  map[string]*model.PitchFxLog
	order []string
	row   int
	clock time.Time
	guid  int
}

func newGameFixture() *gameFixture {
	f := &gameFixture{
		box: model.Boxscore{
			BBRefGameID:  testGame,
			BoxscoreURL:  "https://www.baseball-reference.com/boxes/CHA/CHA201906010.shtml",
			AwayTeamData: model.TeamData{TeamIDBR: "DET"},
			HomeTeamData: model.TeamData{TeamIDBR: "CHW"},
			PlayerIDDict: testPlayers,
		},
		logs:  make(map[string]*model.PitchFxLog),
		clock: time.Date(2019, 6, 1, 18, 10, 5, 0, time.UTC),
	}
	f.box.HomeTeamData.PitchingStats = []model.PitchingStats{{PlayerIDBR: "giolilu01"}}
	f.box.AwayTeamData.PitchingStats = []model.PitchingStats{{PlayerIDBR: "boydma01"}}
	f.log("giolilu01")
	f.log("boydma01")
	return f
}

func teamOf(player string) (team, opponent string) {
	if testPlayers[player].TeamIDBR == "CHW" {
		return "CHA", "DET"
	}
	return "DET", "CHA"
}

func (f *gameFixture) log(pitcher string) *model.PitchFxLog {
	info := testPlayers[pitcher]
	id := fmt.Sprintf("%s_%06d", testGame, info.MLBID)
	if l, ok := f.logs[id]; ok {
		return l
	}
	team, opp := teamOf(pitcher)
	l := &model.PitchFxLog{
		PitchAppID:       id,
		BBRefGameID:      testGame,
		BBGameID:         "gid_2019_06_01_detmlb_chamlb_1",
		PitcherName:      info.Name,
		PitcherID:        info.MLBID,
		PitcherTeamIDBB:  team,
		OpponentTeamIDBB: opp,
		PitchFx:          []model.PitchFx{},
	}
	f.logs[id] = l
	f.order = append(f.order, id)
	return l
}

// play adds an at-bat row to the play-by-play table and the pitcher's
// boxscore line.
func (f *gameFixture) play(label, pitcher, batter, seq, desc string) {
	f.row++
	f.box.PlayByPlay = append(f.box.PlayByPlay, model.PlayByPlayEvent{
		EventType:       model.EventAtBat,
		TableRowNumber:  f.row,
		InningLabel:     label,
		PitcherIDBR:     pitcher,
		BatterIDBR:      batter,
		PitchSequence:   seq,
		PlayDescription: desc,
		Score:           "0-0",
		RunnersOnBase:   "---",
	})
	count, _ := pitchCount(seq)
	for _, side := range []*model.TeamData{&f.box.AwayTeamData, &f.box.HomeTeamData} {
		for i := range side.PitchingStats {
			if side.PitchingStats[i].PlayerIDBR == pitcher {
				side.PitchingStats[i].PitchCount += count
				side.PitchingStats[i].BattersFaced++
			}
		}
	}
}

func (f *gameFixture) sub(label, desc string) {
	f.row++
	f.box.PlayByPlay = append(f.box.PlayByPlay, model.PlayByPlayEvent{
		EventType:      model.EventSubstitution,
		TableRowNumber: f.row,
		InningLabel:    label,
		SubDescription: desc,
	})
}

func (f *gameFixture) tick() string {
	f.clock = f.clock.Add(20 * time.Second)
	return ids.FormatPitchTimestamp(f.clock)
}

// track adds one tracked pitch per code, numbered from 1.
func (f *gameFixture) track(inning int, pitcher, batter string, abID int, codes, des string) []model.PitchFx {
	var added []model.PitchFx
	for i, c := range codes {
		p := f.pitch(inning, pitcher, batter, abID, i+1, f.tick())
		p.ABTotal = len(codes)
		p.PDes, p.Type = pdesByCode[c][0], pdesByCode[c][1]
		p.Des = des
		added = append(added, f.add(pitcher, p))
	}
	return added
}

func (f *gameFixture) pitch(inning int, pitcher, batter string, abID, count int, parkSvID string) model.PitchFx {
	team, opp := teamOf(pitcher)
	f.guid++
	return model.PitchFx{
		PitchAppID:       f.log(pitcher).PitchAppID,
		BBRefGameID:      testGame,
		BBGameID:         "gid_2019_06_01_detmlb_chamlb_1",
		PitcherName:      testPlayers[pitcher].Name,
		PitcherID:        testPlayers[pitcher].MLBID,
		BatterName:       testPlayers[batter].Name,
		BatterID:         testPlayers[batter].MLBID,
		PitcherTeamIDBB:  team,
		OpponentTeamIDBB: opp,
		ParkSvID:         parkSvID,
		PlayGUID:         fmt.Sprintf("5e1f%04d-guid", f.guid),
		Inning:           inning,
		ABID:             abID,
		ABCount:          count,
		ABTotal:          count,
		PDes:             "Ball",
		Type:             "B",
		StartSpeed:       93.4,
		MLBAMPitchName:   "FF",
	}
}

func (f *gameFixture) add(pitcher string, p model.PitchFx) model.PitchFx {
	l := f.log(pitcher)
	l.PitchFx = append(l.PitchFx, p)
	l.TotalPitchCount = len(l.PitchFx)
	return p
}

func (f *gameFixture) input() GameInput {
	in := GameInput{Boxscore: f.box}
	for _, id := range f.order {
		in.Logs = append(in.Logs, *f.logs[id])
	}
	return in
}

func atBatID(inning int, pitcher, batter string, instance int) string {
	team, opp := teamOf(pitcher)
	return fmt.Sprintf("%s_%02d_%s_%06d_%s_%06d_%d",
		testGame, inning, team, testPlayers[pitcher].MLBID, opp, testPlayers[batter].MLBID, instance)
}

func pitchAppID(pitcher string) string {
	return fmt.Sprintf("%s_%06d", testGame, testPlayers[pitcher].MLBID)
}

func findAtBat(t *testing.T, g *model.CombinedGame, id string) model.AtBat {
	t.Helper()
	for _, ab := range g.AtBats() {
		if ab.AtBatID == id {
			return ab
		}
	}
	var known []string
	for _, ab := range g.AtBats() {
		known = append(known, ab.AtBatID)
	}
	t.Fatalf("at-bat %s not found in %s", id, strings.Join(known, ", "))
	return model.AtBat{}
}

func findPitchApp(t *testing.T, g *model.CombinedGame, id string) model.PitchAppStats {
	t.Helper()
	for _, app := range g.PitchApps() {
		if app.PitchAppID == id {
			return app
		}
	}
	t.Fatalf("pitch app %s not found", id)
	return model.PitchAppStats{}
}

type recordingSink struct {
	percents []float64
}

func (s *recordingSink) GameProgress(_ string, percent float64) {
	s.percents = append(s.percents, percent)
}
