package runner

import (
	"github.com/franz/pitchfx-janitor/internal/matcher"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/patch"
	"github.com/franz/pitchfx-janitor/internal/reconcile"
	"github.com/franz/pitchfx-janitor/internal/util"
)

type gameFiles struct {
	box  *model.Boxscore
	logs []model.PitchFxLog
	list *patch.List
}

// load reads the inputs of one game and registers its players. The stored
// patch list is left out when patching is disabled.
func (r *Runner) load(gameID string) (*gameFiles, error) {
	box, err := r.data.LoadBoxscore(gameID)
	if err != nil {
		return nil, err
	}
	logs, err := r.data.LoadPitchFxLogs(gameID)
	if err != nil {
		return nil, err
	}

	if r.players != nil {
		if err := r.players.ImportBoxscore(box); err != nil {
			util.WarnLog("%s: failed to register players: %v", gameID, err)
		}
	}

	in := &gameFiles{box: box, logs: logs}
	if r.patching {
		if in.list, err = r.data.LoadPatchList(gameID); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (r *Runner) pipeline() (*patch.Engine, *matcher.Matcher, *reconcile.Reconciler) {
	var lookup patch.PlayerLookup
	if r.players != nil {
		lookup = r.players
	}
	return patch.NewEngine(lookup), matcher.New(lookup), reconcile.New(r.sink)
}

// Proposal is a dry run of the matcher for one game: the audit with the
// stored patch list and the audit with the matched patches merged in.
type Proposal struct {
	GameID   string
	Stored   *patch.List // nil when the game has no patch list
	List     *patch.List // nil when nothing new was matched
	Before   model.GameAudit
	After    model.GameAudit
	Outcomes []matcher.Outcome
}

// CountChange is one audit counter that a proposal changes
type CountChange struct {
	Name   string
	Before int
	After  int
}

// Changes lists the audit counters that differ between Before and After
func (p *Proposal) Changes() []CountChange {
	before, after := p.Before.Values(), p.After.Values()
	var changes []CountChange
	for i, name := range model.AuditCountColumns {
		if before[i] != after[i] {
			changes = append(changes, CountChange{Name: name, Before: before[i], After: after[i]})
		}
	}
	return changes
}

// Propose reconciles a game with its stored patch list, then runs the
// matcher up to the rematch limit without writing anything.
func (r *Runner) Propose(gameID string) (*Proposal, error) {
	in, err := r.load(gameID)
	if err != nil {
		return nil, err
	}
	engine, match, rec := r.pipeline()

	combine := func(list *patch.List) (*model.CombinedGame, error) {
		patched, err := engine.Apply(in.logs, list, in.box)
		if err != nil {
			return nil, err
		}
		return rec.Reconcile(reconcile.GameInput{Boxscore: *in.box, Logs: patched})
	}

	g, err := combine(in.list)
	if err != nil {
		return nil, err
	}
	prop := &Proposal{GameID: gameID, Stored: in.list, Before: g.Audit, After: g.Audit}

	list := in.list
	for attempt := 1; attempt <= r.rematchLimit && len(g.InvalidAtBats()) > 0; attempt++ {
		res := match.Match(g)
		prop.Outcomes = append(prop.Outcomes, res.Outcomes...)
		if res.Matched() == 0 {
			break
		}
		list = patch.Merge(list, res.List)
		if g, err = combine(list); err != nil {
			return nil, err
		}
		prop.List = list
	}
	prop.After = g.Audit
	return prop, nil
}

// WritePatchList persists the merged list of a proposal
func (r *Runner) WritePatchList(p *Proposal) error {
	if p.List.Empty() {
		return nil
	}
	return r.data.SavePatchList(p.List)
}
