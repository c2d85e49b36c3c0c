package reconcile

import (
	"sort"

	"github.com/franz/pitchfx-janitor/internal/ids"
	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/pitchfx"
)

// alignGroups decides which play-by-play at-bat each tracking at-bat
// belongs to when a pitcher and batter meet more than once in a half
// inning. When tracking has fewer at-bats than play-by-play, a group goes
// to the first unassigned at-bat whose pitch count equals the group size,
// otherwise to the first unassigned at-bat. Otherwise ordinal numbering
// already lines up and nothing is pinned.
func alignGroups(atBats []*playAtBat, records []model.PitchFx) (map[pitchfx.InstanceKey]int, error) {
	playsByBase := make(map[string][]*playAtBat)
	for _, pa := range atBats {
		base := pa.id.Base()
		playsByBase[base] = append(playsByBase[base], pa)
	}

	sizes := make(map[string]map[int]int)
	for _, p := range records {
		id, err := ids.ParseAtBatID(p.AtBatID)
		if err != nil {
			return nil, err
		}
		base := id.Base()
		if sizes[base] == nil {
			sizes[base] = make(map[int]int)
		}
		sizes[base][p.ABID]++
	}

	pins := make(map[pitchfx.InstanceKey]int)
	for base, groups := range sizes {
		plays := playsByBase[base]
		if len(groups) >= len(plays) {
			continue
		}
		abIDs := make([]int, 0, len(groups))
		for abID := range groups {
			abIDs = append(abIDs, abID)
		}
		sort.Ints(abIDs)

		used := make([]bool, len(plays))
		for _, abID := range abIDs {
			pick := -1
			for i, pa := range plays {
				if !used[i] && pa.expected == groups[abID] {
					pick = i
					break
				}
			}
			if pick < 0 {
				for i := range plays {
					if !used[i] {
						pick = i
						break
					}
				}
			}
			used[pick] = true
			pins[pitchfx.InstanceKey{Base: base, ABID: abID}] = plays[pick].id.Instance
		}
	}
	return pins, nil
}
