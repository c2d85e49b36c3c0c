// Package registry maps player ids between the boxscore site and the pitch
// tracking system. Entries live in the player_ids table and are cached in
// memory for the length of a run.
package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/patrickmn/go-cache"
	"golang.org/x/text/unicode/norm"

	"github.com/franz/pitchfx-janitor/internal/model"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// DefaultTTL is how long a looked up player stays cached
const DefaultTTL = 30 * time.Minute

// Player is one player_ids row
type Player struct {
	MLBID    int    `json:"mlb_id"`
	BBRefID  string `json:"bbref_id"`
	Name     string `json:"name"`
	TeamIDBR string `json:"team_id_br,omitempty"`
}

// Info converts to the boxscore player record.
func (p Player) Info() model.PlayerInfo {
	return model.PlayerInfo{Name: p.Name, MLBID: p.MLBID, TeamIDBR: p.TeamIDBR}
}

// Registry provides database-backed player lookups with an in-memory cache
type Registry struct {
	db    *sql.DB
	cache *cache.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a registry on an open database. ttl <= 0 uses DefaultTTL.
func New(db *sql.DB, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		db:    db,
		cache: cache.New(ttl, ttl*2),
	}
}

// EnsureSchema creates the player_ids table if it doesn't exist
func (r *Registry) EnsureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS player_ids (
		mlb_id INTEGER PRIMARY KEY,
		bbref_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		team_id_br TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create player_ids table: %w", err)
	}
	return nil
}

// NormalizeName trims a player name and puts it in NFC form, so names
// scraped from different pages compare equal
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

func mlbKey(id int) string { return fmt.Sprintf("mlb:%d", id) }

// PlayerByMLBID resolves a tracking id to the bbref id and player record.
// Unknown ids return util.ErrNotFound.
func (r *Registry) PlayerByMLBID(mlbID int) (string, model.PlayerInfo, error) {
	if cached, found := r.cache.Get(mlbKey(mlbID)); found {
		r.hits.Add(1)
		p := cached.(Player)
		return p.BBRefID, p.Info(), nil
	}
	r.misses.Add(1)

	var p Player
	var team sql.NullString
	err := r.db.QueryRow(`
		SELECT mlb_id, bbref_id, name, team_id_br
		FROM player_ids WHERE mlb_id = ?
	`, mlbID).Scan(&p.MLBID, &p.BBRefID, &p.Name, &team)
	if err == sql.ErrNoRows {
		return "", model.PlayerInfo{}, errors.Wrapf(util.ErrNotFound, "player with mlb id %d", mlbID)
	}
	if err != nil {
		return "", model.PlayerInfo{}, fmt.Errorf("failed to query player: %w", err)
	}
	p.TeamIDBR = team.String

	util.DebugLog("registry: loaded %d -> %s (%s)", p.MLBID, p.BBRefID, p.Name)
	r.cache.Set(mlbKey(mlbID), p, cache.DefaultExpiration)
	return p.BBRefID, p.Info(), nil
}

// PlayerByBBRefID resolves a bbref id. Not cached: only the CLI uses it.
func (r *Registry) PlayerByBBRefID(bbrefID string) (*Player, error) {
	var p Player
	var team sql.NullString
	err := r.db.QueryRow(`
		SELECT mlb_id, bbref_id, name, team_id_br
		FROM player_ids WHERE bbref_id = ?
	`, bbrefID).Scan(&p.MLBID, &p.BBRefID, &p.Name, &team)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(util.ErrNotFound, "player %s", bbrefID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query player: %w", err)
	}
	p.TeamIDBR = team.String
	return &p, nil
}

// Upsert stores players in one transaction and drops them from the cache
func (r *Registry) Upsert(players []Player) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO player_ids (mlb_id, bbref_id, name, team_id_br, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mlb_id) DO UPDATE SET
			bbref_id = excluded.bbref_id,
			name = excluded.name,
			team_id_br = excluded.team_id_br,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range players {
		if p.MLBID <= 0 || p.BBRefID == "" {
			return errors.Wrapf(util.ErrMalformedID, "player %q with mlb id %d", p.BBRefID, p.MLBID)
		}
		if _, err := stmt.Exec(p.MLBID, p.BBRefID, NormalizeName(p.Name), p.TeamIDBR, now); err != nil {
			return fmt.Errorf("failed to upsert player %s: %w", p.BBRefID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	for _, p := range players {
		r.cache.Delete(mlbKey(p.MLBID))
	}
	return nil
}

// FromDict converts a bbref id keyed player table, ordered by bbref id
func FromDict(dict map[string]model.PlayerInfo) []Player {
	out := make([]Player, 0, len(dict))
	for bbrefID, info := range dict {
		out = append(out, Player{MLBID: info.MLBID, BBRefID: bbrefID, Name: info.Name, TeamIDBR: info.TeamIDBR})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BBRefID < out[j].BBRefID })
	return out
}

// ImportFile loads a players.json file (bbref id -> player record) and
// returns how many players were stored
func (r *Registry) ImportFile(path string) (int, error) {
	data, err := util.RetryableReadFile(path, util.DefaultRetryConfig())
	if err != nil {
		return 0, err
	}
	var dict map[string]model.PlayerInfo
	if err := json.Unmarshal(data, &dict); err != nil {
		return 0, errors.Wrapf(err, "decode %s", path)
	}
	players := FromDict(dict)
	if err := r.Upsert(players); err != nil {
		return 0, err
	}
	r.ClearCache()
	util.InfoLog("Imported %d players from %s", len(players), path)
	return len(players), nil
}

// ImportBoxscore seeds the registry from the player table of a boxscore.
// Players without a tracking id are skipped.
func (r *Registry) ImportBoxscore(box *model.Boxscore) error {
	var players []Player
	for _, p := range FromDict(box.PlayerIDDict) {
		if p.MLBID > 0 {
			players = append(players, p)
		}
	}
	return r.Upsert(players)
}

// Count returns the number of registered players
func (r *Registry) Count() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM player_ids").Scan(&n)
	return n, err
}

// CacheStats returns the cache hit and miss counters
func (r *Registry) CacheStats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

// ClearCache drops every cached entry
func (r *Registry) ClearCache() {
	r.cache.Flush()
}
