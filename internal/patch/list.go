// Package patch edits tracked pitch records ahead of normalization. A
// patch list is stored next to the game's data and reapplied on every run.
package patch

import (
	"encoding/json"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

const (
	ListID = "__brooks_pitchfx_patch_list__"

	KindChangeBatter  = "__patch_pitchfx_batter_id__"
	KindChangePitcher = "__patch_pitchfx_pitcher_id__"
	KindDelete        = "__patch_pitchfx_delete__"
)

// Patch edits one pitch record, found by pitch-app id and park_sv_id.
type Patch struct {
	Kind       string `json:"patch_id" validate:"required,oneof=__patch_pitchfx_batter_id__ __patch_pitchfx_pitcher_id__ __patch_pitchfx_delete__"`
	PitchAppID string `json:"pitch_app_id" validate:"required"`
	ParkSvID   string `json:"park_sv_id" validate:"required"`

	CurrentAtBatID string `json:"current_at_bat_id,omitempty"`
	NewAtBatID     string `json:"new_at_bat_id,omitempty" validate:"required_unless=Kind __patch_pitchfx_delete__"`

	CurrentBatterID int    `json:"current_batter_id,omitempty"`
	NewBatterID     int    `json:"new_batter_id,omitempty" validate:"required_if=Kind __patch_pitchfx_batter_id__"`
	NewBatterName   string `json:"new_batter_name,omitempty"`

	CurrentPitcherID int    `json:"current_pitcher_id,omitempty"`
	NewPitcherID     int    `json:"new_pitcher_id,omitempty" validate:"required_if=Kind __patch_pitchfx_pitcher_id__"`
	NewPitcherName   string `json:"new_pitcher_name,omitempty"`
	NewPitchAppID    string `json:"new_pitch_app_id,omitempty" validate:"required_if=Kind __patch_pitchfx_pitcher_id__"`
}

// List is the ordered patch list of one game.
type List struct {
	PatchListID string  `json:"patch_list_id" validate:"eq=__brooks_pitchfx_patch_list__"`
	GameID      string  `json:"game_id" validate:"required"`
	Version     int     `json:"version" validate:"gte=1"`
	Patches     []Patch `json:"patches" validate:"dive"`
}

var validate = validator.New()

// NewList returns an empty version 1 list for a game.
func NewList(gameID string) *List {
	return &List{PatchListID: ListID, GameID: gameID, Version: 1, Patches: []Patch{}}
}

// ChangeBatter moves a pitch to the same pitcher's at-bat against another batter.
func ChangeBatter(p model.PitchFx, target ids.AtBatID, batterName string) Patch {
	return Patch{
		Kind:            KindChangeBatter,
		PitchAppID:      p.PitchAppID,
		ParkSvID:        p.ParkSvID,
		CurrentAtBatID:  p.AtBatID,
		NewAtBatID:      target.String(),
		CurrentBatterID: p.BatterID,
		NewBatterID:     target.BatterID,
		NewBatterName:   batterName,
	}
}

// ChangePitcher moves a pitch to another pitcher's pitch-app.
func ChangePitcher(p model.PitchFx, target ids.AtBatID, pitcherName string) Patch {
	return Patch{
		Kind:             KindChangePitcher,
		PitchAppID:       p.PitchAppID,
		ParkSvID:         p.ParkSvID,
		CurrentAtBatID:   p.AtBatID,
		NewAtBatID:       target.String(),
		CurrentPitcherID: p.PitcherID,
		NewPitcherID:     target.PitcherID,
		NewPitcherName:   pitcherName,
		NewPitchAppID:    target.PitchAppID().String(),
	}
}

// Delete drops a pitch from the game.
func Delete(p model.PitchFx) Patch {
	return Patch{
		Kind:           KindDelete,
		PitchAppID:     p.PitchAppID,
		ParkSvID:       p.ParkSvID,
		CurrentAtBatID: p.AtBatID,
	}
}

func (p Patch) key() string {
	return p.PitchAppID + "@" + p.ParkSvID
}

// Validate checks the list structure and every id in it.
func (l *List) Validate() error {
	if l == nil {
		return errors.Wrap(util.ErrInvalidPatchList, "nil patch list")
	}
	if err := validate.Struct(l); err != nil {
		return errors.Wrapf(util.ErrInvalidPatchList, "%v", err)
	}
	game, err := ids.ParseGameID(l.GameID)
	if err != nil {
		return errors.Wrapf(util.ErrInvalidPatchList, "%v", err)
	}
	for i, p := range l.Patches {
		if err := p.validateIDs(game); err != nil {
			return errors.Wrapf(util.ErrInvalidPatchList, "patch %d (%s): %v", i, p.Kind, err)
		}
	}
	return nil
}

func (p Patch) validateIDs(game ids.GameID) error {
	app, err := ids.ParsePitchAppID(p.PitchAppID)
	if err != nil {
		return err
	}
	if app.Game.String() != game.String() {
		return errors.Newf("pitch app %s is not part of game %s", p.PitchAppID, game)
	}
	if _, err := ids.ParsePitchTimestamp(p.ParkSvID); err != nil {
		return err
	}
	if p.Kind == KindDelete {
		return nil
	}
	target, err := ids.ParseAtBatID(p.NewAtBatID)
	if err != nil {
		return err
	}
	if target.Game.String() != game.String() {
		return errors.Newf("at-bat %s is not part of game %s", p.NewAtBatID, game)
	}
	switch p.Kind {
	case KindChangeBatter:
		if target.BatterID != p.NewBatterID {
			return errors.Newf("new batter %d does not match at-bat %s", p.NewBatterID, p.NewAtBatID)
		}
	case KindChangePitcher:
		if target.PitcherID != p.NewPitcherID || target.PitchAppID().String() != p.NewPitchAppID {
			return errors.Newf("new pitcher %d does not match at-bat %s", p.NewPitcherID, p.NewAtBatID)
		}
	}
	return nil
}

// Empty reports whether applying the list changes nothing.
func (l *List) Empty() bool {
	return l == nil || len(l.Patches) == 0
}

// Merge combines a stored list with newly found patches. Patches are keyed
// by their target record and the newer one wins. The result is ordered by
// pitch time and carries the next version.
func Merge(old, next *List) *List {
	if old == nil {
		if next == nil {
			return nil
		}
		merged := *next
		merged.Patches = sortedPatches(next.Patches)
		return &merged
	}
	byKey := make(map[string]Patch, len(old.Patches))
	for _, p := range old.Patches {
		byKey[p.key()] = p
	}
	if next != nil {
		for _, p := range next.Patches {
			byKey[p.key()] = p
		}
	}
	patches := make([]Patch, 0, len(byKey))
	for _, p := range byKey {
		patches = append(patches, p)
	}
	return &List{
		PatchListID: ListID,
		GameID:      old.GameID,
		Version:     old.Version + 1,
		Patches:     sortedPatches(patches),
	}
}

func sortedPatches(patches []Patch) []Patch {
	out := append([]Patch{}, patches...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ParkSvID != out[j].ParkSvID {
			return out[i].ParkSvID < out[j].ParkSvID
		}
		return out[i].PitchAppID < out[j].PitchAppID
	})
	return out
}

// Decode parses and validates a stored patch list.
func Decode(data []byte) (*List, error) {
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrapf(util.ErrInvalidPatchList, "decode: %v", err)
	}
	if l.Patches == nil {
		l.Patches = []Patch{}
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Encode renders the list as indented JSON.
func (l *List) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode patch list")
	}
	return append(data, '\n'), nil
}

// Load reads a patch list file.
func Load(path string) (*List, error) {
	data, err := util.RetryableReadFile(path, util.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	l, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "patch list %s", path)
	}
	return l, nil
}

// Save writes a validated patch list file.
func Save(path string, l *List) error {
	if err := l.Validate(); err != nil {
		return err
	}
	data, err := l.Encode()
	if err != nil {
		return err
	}
	return util.RetryableWriteFile(path, data, util.DefaultRetryConfig())
}
