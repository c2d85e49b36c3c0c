package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// EventType names a step of a combine run
type EventType string

const (
	EventGame    EventType = "game"
	EventPatch   EventType = "patch"
	EventMatch   EventType = "match"
	EventCombine EventType = "combine"
	EventImport  EventType = "import"
	EventSkip    EventType = "skip"
	EventError   EventType = "error"
)

// EventLevel orders events for filtering
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a config string to a level, defaulting to info
func ParseLevel(s string) EventLevel {
	level := EventLevel(s)
	if _, ok := levelPriority[level]; ok {
		return level
	}
	return LevelInfo
}

// Event represents a single event in a combine run
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	RunID     string            `json:"run_id,omitempty"`
	GameID    string            `json:"game_id,omitempty"`
	AtBatID   string            `json:"at_bat_id,omitempty"`
	Target    string            `json:"target,omitempty"`
	Verdict   string            `json:"verdict,omitempty"`
	Attempt   int               `json:"attempt,omitempty"`
	Patches   int               `json:"patches,omitempty"`
	Path      string            `json:"path,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger appends run events to a JSON lines file. A nil *EventLogger is
// valid and discards everything.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
	runID    string
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event is stamped with runID.
func NewEventLogger(outputDir string, minLevel EventLevel, runID string) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, "events-"+time.Now().Format("20060102-150405")+".jsonl")

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
		runID:    runID,
	}, nil
}

// Log stamps and appends one event. Events below the logger's level and
// calls on a nil logger are dropped.
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil || levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogGame logs the start of a game
func (l *EventLogger) LogGame(gameID string, pitchApps int) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventGame,
		GameID: gameID,
		Extra: map[string]string{
			"pitch_apps": strconv.Itoa(pitchApps),
		},
	})
}

// LogPatch logs a patch list applied to a game
func (l *EventLogger) LogPatch(gameID string, version, patches int) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventPatch,
		GameID:  gameID,
		Patches: patches,
		Extra: map[string]string{
			"version": strconv.Itoa(version),
		},
	})
}

// LogMatch logs the matcher decision for one invalid at-bat
func (l *EventLogger) LogMatch(gameID, atBatID, target string, patches int, err error) error {
	level, errMsg := outcome(err, LevelDebug)

	return l.Log(&Event{
		Level:   level,
		Event:   EventMatch,
		GameID:  gameID,
		AtBatID: atBatID,
		Target:  target,
		Patches: patches,
		Error:   errMsg,
	})
}

// LogCombine logs one reconcile pass of a game
func (l *EventLogger) LogCombine(gameID, verdict string, attempt int, duration time.Duration, err error) error {
	level, errMsg := outcome(err, LevelError)

	return l.Log(&Event{
		Level:    level,
		Event:    EventCombine,
		GameID:   gameID,
		Verdict:  verdict,
		Attempt:  attempt,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
	})
}

// LogImport logs the audit store import of a game
func (l *EventLogger) LogImport(gameID, path string, err error) error {
	level, errMsg := outcome(err, LevelError)

	return l.Log(&Event{
		Level:  level,
		Event:  EventImport,
		GameID: gameID,
		Path:   path,
		Error:  errMsg,
	})
}

// LogSkip logs a game that was not processed
func (l *EventLogger) LogSkip(gameID, reason string) error {
	return l.Log(&Event{
		Level:  LevelWarning,
		Event:  EventSkip,
		GameID: gameID,
		Reason: reason,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, gameID string, err error) error {
	return l.Log(&Event{
		Level:  LevelError,
		Event:  event,
		GameID: gameID,
		Error:  err.Error(),
	})
}

// Close flushes nothing and closes the file; it is safe on a nil logger
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}

// outcome picks the event level for a step that may have failed
func outcome(err error, failed EventLevel) (EventLevel, string) {
	if err == nil {
		return LevelInfo, ""
	}
	return failed, err.Error()
}
