package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", len(events)+1, err)
		}
		events = append(events, decoded)
	}
	return events
}

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug, "run-1")
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logger.Path()); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.Path())
	}

	filename := filepath.Base(logger.Path())
	if len(filename) < len("events-20060102-150405.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
}

func TestEventLogger_StampsRunIDAndTimestamp(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug, "9b1f6c2e")
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventGame, GameID: "CHA201906010"}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := logger.Log(&Event{Level: LevelInfo, Event: EventGame, RunID: "other"}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	logger.Close()

	events := readEvents(t, logger.Path())
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].RunID != "9b1f6c2e" {
		t.Errorf("Expected run_id '9b1f6c2e', got '%s'", events[0].RunID)
	}
	if events[1].RunID != "other" {
		t.Errorf("Expected explicit run_id to win, got '%s'", events[1].RunID)
	}
	if time.Since(events[0].Timestamp) > 5*time.Second {
		t.Errorf("Timestamp is too old: %v", events[0].Timestamp)
	}
}

func TestEventLogger_Helpers(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug, "run")
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogGame("CHA201906010", 7)
	logger.LogPatch("CHA201906010", 2, 3)
	logger.LogMatch("CHA201906010", "CHA201906010_01_CHA_608337_DET_600869_0", "CHA201906010_01_CHA_608337_DET_643256_0", 2, nil)
	logger.LogCombine("CHA201906010", "PATCHED", 2, 250*time.Millisecond, nil)
	logger.LogImport("CHA201906010", "combined/CHA201906010.json", errors.New("database is locked"))
	logger.LogSkip("CHA201906020", "cancelled")
	logger.Close()

	events := readEvents(t, logger.Path())
	if len(events) != 6 {
		t.Fatalf("Expected 6 events, got %d", len(events))
	}

	if events[0].Event != EventGame || events[0].Extra["pitch_apps"] != "7" {
		t.Errorf("Unexpected game event %+v", events[0])
	}
	if events[1].Patches != 3 || events[1].Extra["version"] != "2" {
		t.Errorf("Unexpected patch event %+v", events[1])
	}
	if events[2].Target != "CHA201906010_01_CHA_608337_DET_643256_0" || events[2].Level != LevelInfo {
		t.Errorf("Unexpected match event %+v", events[2])
	}
	if events[3].Verdict != "PATCHED" || events[3].Duration != 250 || events[3].Attempt != 2 {
		t.Errorf("Unexpected combine event %+v", events[3])
	}
	if events[4].Level != LevelError || events[4].Error != "database is locked" {
		t.Errorf("Unexpected import event %+v", events[4])
	}
	if events[5].Level != LevelWarning || events[5].Reason != "cancelled" {
		t.Errorf("Unexpected skip event %+v", events[5])
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug, "run")
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				if err := logger.LogCombine("CHA201906010", "COMPLETE", 1, time.Millisecond, nil); err != nil {
					t.Errorf("Concurrent log failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	logger.Close()

	if n := len(readEvents(t, logger.Path())); n != numGoroutines*eventsPerGoroutine {
		t.Errorf("Expected %d events, got %d", numGoroutines*eventsPerGoroutine, n)
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventGame}); err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}
	if err := logger.LogSkip("CHA201906010", "cancelled"); err != nil {
		t.Errorf("NullLogger.LogSkip should not return error, got: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}
	if path := logger.Path(); path != "" {
		t.Errorf("NullLogger.Path should return empty string, got: %s", path)
	}
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	all := []Event{
		{Level: LevelDebug, Event: EventGame},
		{Level: LevelInfo, Event: EventCombine},
		{Level: LevelWarning, Event: EventSkip},
		{Level: LevelError, Event: EventError},
	}
	testCases := []struct {
		name          string
		minLevel      EventLevel
		expectedCount int
	}{
		{"LevelDebug logs all", LevelDebug, 4},
		{"LevelInfo skips debug", LevelInfo, 3},
		{"LevelWarning skips debug and info", LevelWarning, 2},
		{"LevelError only logs errors", LevelError, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewEventLogger(t.TempDir(), tc.minLevel, "run")
			if err != nil {
				t.Fatalf("NewEventLogger failed: %v", err)
			}
			for _, e := range all {
				e := e
				if err := logger.Log(&e); err != nil {
					t.Fatalf("Log failed: %v", err)
				}
			}
			logger.Close()

			if n := len(readEvents(t, logger.Path())); n != tc.expectedCount {
				t.Errorf("Expected %d events logged, got %d", tc.expectedCount, n)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warning") != LevelWarning {
		t.Error("Expected warning level")
	}
	if ParseLevel("loud") != LevelInfo {
		t.Error("Expected unknown levels to fall back to info")
	}
}
