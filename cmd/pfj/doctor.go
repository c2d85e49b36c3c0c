package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/pitchfx-janitor/internal/gamedata"
	"github.com/franz/pitchfx-janitor/internal/registry"
	"github.com/franz/pitchfx-janitor/internal/store"
	"github.com/franz/pitchfx-janitor/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure pfj can operate correctly.

This command checks:
- SQLite version
- Database accessibility, integrity and schema version
- Data directory layout (boxscores, pitchfx, patches, combined)
- Player registry size
- Artifacts directory permissions
- Disk space availability

Use this command to troubleshoot issues before running pfj operations.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().String("artifacts", "artifacts", "Directory for event logs and reports")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== PFJ Doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	results = append(results, checkSQLite())

	dbPath := GetConfigString("db", "")
	results = append(results, checkDatabase(dbPath))
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			results = append(results, checkRegistry(dbPath))
		}
	}

	dataPath := GetConfigString("data", "")
	results = append(results, checkDataDirectory(dataPath))

	artifacts, _ := cmd.Flags().GetString("artifacts")
	results = append(results, checkOutputDirectory(artifacts))

	if dataPath != "" {
		results = append(results, checkDiskSpace(dataPath, "data"))
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before running pfj.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! System is ready for pfj operations.")
	}

	return nil
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	version, _ := db.SchemaVersion()
	verdicts, _ := db.VerdictCounts()
	games := 0
	for _, n := range verdicts {
		games += n
	}

	return checkResult{
		name: "Database",
		message: fmt.Sprintf("%s (%s, schema v%d, %s games)", dbPath,
			humanize.Bytes(uint64(info.Size())), version, humanize.Comma(int64(games))),
	}
}

// checkRegistry reports the size of the player registry
func checkRegistry(dbPath string) checkResult {
	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Player registry",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	players := registry.New(db.DB(), 0)
	if err := players.EnsureSchema(); err != nil {
		return checkResult{
			name:    "Player registry",
			error:   true,
			message: err.Error(),
		}
	}
	n, err := players.Count()
	if err != nil {
		return checkResult{
			name:    "Player registry",
			error:   true,
			message: err.Error(),
		}
	}
	if n == 0 {
		return checkResult{
			name:    "Player registry",
			warning: true,
			message: "empty (seed it with 'pfj players import players.json')",
		}
	}
	return checkResult{
		name:    "Player registry",
		message: fmt.Sprintf("%s players", humanize.Comma(int64(n))),
	}
}

// checkDataDirectory verifies the game data layout
func checkDataDirectory(path string) checkResult {
	if path == "" {
		return checkResult{
			name:    "Data directory",
			warning: true,
			message: "no data directory specified (use --data flag or config)",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Data directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}
	if !info.IsDir() {
		return checkResult{
			name:    "Data directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	data := gamedata.Open(path)
	games, err := data.Discover(gamedata.Selection{})
	if err != nil {
		return checkResult{
			name:    "Data directory",
			error:   true,
			message: fmt.Sprintf("cannot list games in %s: %v", path, err),
		}
	}

	if missing := data.MissingDirs(); len(missing) > 0 {
		return checkResult{
			name:    "Data directory",
			warning: true,
			message: fmt.Sprintf("%s (%d games, missing %s)", path, len(games), strings.Join(missing, ", ")),
		}
	}

	return checkResult{
		name:    "Data directory",
		message: fmt.Sprintf("%s (%s games)", path, humanize.Comma(int64(len(games)))),
	}
}

// checkOutputDirectory verifies the artifacts directory is writable
func checkOutputDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Artifacts directory",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Artifacts directory",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	testFile := filepath.Join(path, ".pfj_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Artifacts directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))
	usedPercent := float64(usedBytes) / float64(totalBytes) * 100

	warning := false
	warningMsg := ""
	if availBytes < 5*humanize.GByte {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 90 {
		warning = true
		warningMsg = " (>90% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%s available%s", humanize.Bytes(availBytes), warningMsg),
	}
}
