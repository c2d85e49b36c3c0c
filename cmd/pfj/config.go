package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/franz/pitchfx-janitor/internal/gamedata"
	"github.com/franz/pitchfx-janitor/internal/report"
	"github.com/franz/pitchfx-janitor/internal/store"
	"github.com/franz/pitchfx-janitor/internal/util"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (PFJ_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// applyLogFlags sets the console log level from --verbose and --quiet
func applyLogFlags() {
	util.SetVerbose(GetConfigBool("verbose"))
	util.SetQuiet(GetConfigBool("quiet"))
}

// eventLevel maps the console flags onto the event log level
func eventLevel() report.EventLevel {
	if lvl := GetConfigString("event-level", ""); lvl != "" {
		return report.ParseLevel(lvl)
	}
	switch {
	case GetConfigBool("quiet"):
		return report.LevelWarning
	case GetConfigBool("verbose"):
		return report.LevelDebug
	default:
		return report.LevelInfo
	}
}

func dataDir() *gamedata.Dir {
	return gamedata.Open(GetConfigString("data", "data"))
}

func openStore() (*store.Store, string, error) {
	dbPath := GetConfigString("db", "pfj-state.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, dbPath, fmt.Errorf("failed to open database: %w", err)
	}
	return db, dbPath, nil
}
