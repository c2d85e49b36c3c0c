package store

// Schema v1 - game status, per pitch-app audit rows and the player registry
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per imported game
CREATE TABLE IF NOT EXISTS game_status (
  bbref_game_id TEXT PRIMARY KEY,
  bb_game_id TEXT NOT NULL,
  game_date TEXT NOT NULL,
  season INTEGER NOT NULL,
  verdict TEXT NOT NULL,
  missing_pitchfx_is_valid INTEGER NOT NULL DEFAULT 0,
  patch_list_version INTEGER NOT NULL DEFAULT 0,
  combined_path TEXT,
  combined_json TEXT NOT NULL,
  imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_game_status_date ON game_status(game_date);
CREATE INDEX IF NOT EXISTS idx_game_status_season ON game_status(season);
CREATE INDEX IF NOT EXISTS idx_game_status_verdict ON game_status(verdict);

-- Audit counters of one pitch-app
CREATE TABLE IF NOT EXISTS pitch_app_audit (
  pitch_app_id TEXT PRIMARY KEY,
  bbref_game_id TEXT NOT NULL REFERENCES game_status(bbref_game_id),
  pitcher_id_mlb INTEGER NOT NULL,
  pitcher_name TEXT,
  game_date TEXT NOT NULL,
  season INTEGER NOT NULL,
  no_pitchfx_data INTEGER NOT NULL DEFAULT 0,
  pitch_count_bbref INTEGER NOT NULL DEFAULT 0,
  pitch_count_pitchfx INTEGER NOT NULL DEFAULT 0,
  batters_faced_bbref INTEGER NOT NULL DEFAULT 0,
  batters_faced_pitchfx INTEGER NOT NULL DEFAULT 0,
  patched_pitchfx_count INTEGER NOT NULL DEFAULT 0,
  missing_pitchfx_count INTEGER NOT NULL DEFAULT 0,
  extra_pitchfx_count INTEGER NOT NULL DEFAULT 0,
  extra_pitchfx_removed_count INTEGER NOT NULL DEFAULT 0,
  duplicate_pitchfx_removed_count INTEGER NOT NULL DEFAULT 0,
  invalid_pitchfx_count INTEGER NOT NULL DEFAULT 0,
  total_at_bats_pitchfx_complete INTEGER NOT NULL DEFAULT 0,
  total_at_bats_patched_pitchfx INTEGER NOT NULL DEFAULT 0,
  total_at_bats_missing_pitchfx INTEGER NOT NULL DEFAULT 0,
  total_at_bats_extra_pitchfx INTEGER NOT NULL DEFAULT 0,
  total_at_bats_extra_pitchfx_removed INTEGER NOT NULL DEFAULT 0,
  total_at_bats_pitchfx_error INTEGER NOT NULL DEFAULT 0,
  total_at_bats_invalid_pitchfx INTEGER NOT NULL DEFAULT 0,
  imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pitch_app_audit_game ON pitch_app_audit(bbref_game_id);
CREATE INDEX IF NOT EXISTS idx_pitch_app_audit_date ON pitch_app_audit(game_date);
CREATE INDEX IF NOT EXISTS idx_pitch_app_audit_season ON pitch_app_audit(season);

-- Player id registry
CREATE TABLE IF NOT EXISTS player_ids (
  mlb_id INTEGER PRIMARY KEY,
  bbref_id TEXT UNIQUE NOT NULL,
  name TEXT NOT NULL,
  team_id_br TEXT,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// auditSums is the SUM() list shared by the rollup views
const auditSums = `
  SUM(pitch_count_bbref) AS pitch_count_bbref,
  SUM(pitch_count_pitchfx) AS pitch_count_pitchfx,
  SUM(batters_faced_bbref) AS batters_faced_bbref,
  SUM(batters_faced_pitchfx) AS batters_faced_pitchfx,
  SUM(patched_pitchfx_count) AS patched_pitchfx_count,
  SUM(missing_pitchfx_count) AS missing_pitchfx_count,
  SUM(extra_pitchfx_count) AS extra_pitchfx_count,
  SUM(extra_pitchfx_removed_count) AS extra_pitchfx_removed_count,
  SUM(duplicate_pitchfx_removed_count) AS duplicate_pitchfx_removed_count,
  SUM(invalid_pitchfx_count) AS invalid_pitchfx_count,
  SUM(total_at_bats_pitchfx_complete) AS total_at_bats_pitchfx_complete,
  SUM(total_at_bats_patched_pitchfx) AS total_at_bats_patched_pitchfx,
  SUM(total_at_bats_missing_pitchfx) AS total_at_bats_missing_pitchfx,
  SUM(total_at_bats_extra_pitchfx) AS total_at_bats_extra_pitchfx,
  SUM(total_at_bats_extra_pitchfx_removed) AS total_at_bats_extra_pitchfx_removed,
  SUM(total_at_bats_pitchfx_error) AS total_at_bats_pitchfx_error,
  SUM(total_at_bats_invalid_pitchfx) AS total_at_bats_invalid_pitchfx`

// Schema v2 - game, date and season rollups over pitch_app_audit
const schemaV2 = `
CREATE VIEW IF NOT EXISTS game_audit AS
SELECT
  bbref_game_id,
  game_date,
  season,
  COUNT(*) AS pitch_apps,` + auditSums + `
FROM pitch_app_audit
GROUP BY bbref_game_id;

CREATE VIEW IF NOT EXISTS date_audit AS
SELECT
  game_date,
  season,
  COUNT(DISTINCT bbref_game_id) AS games,
  COUNT(*) AS pitch_apps,` + auditSums + `
FROM pitch_app_audit
GROUP BY game_date;

CREATE VIEW IF NOT EXISTS season_audit AS
SELECT
  season,
  COUNT(DISTINCT bbref_game_id) AS games,
  COUNT(*) AS pitch_apps,` + auditSums + `
FROM pitch_app_audit
GROUP BY season;
`

// Schema v3 - pitch-app rows carry an imported flag
const schemaV3 = `
ALTER TABLE pitch_app_audit ADD COLUMN imported INTEGER NOT NULL DEFAULT 0;
`
