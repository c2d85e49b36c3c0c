package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// RetryConfig bounds RetryWithBackoff
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig is used for data file reads and writes
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// StoreRetryConfig returns retry config for SQLite writers contending on the lock
func StoreRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 5,
		InitialWait: 50 * time.Millisecond,
		MaxWait:     2 * time.Second,
	}
}

// transientMessages are substrings of errors that go away on their own,
// mostly SQLite lock contention surfaced by modernc as plain text.
var transientMessages = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"sqlite_locked",
	"timeout",
	"timed out",
	"resource temporarily unavailable",
	"interrupted system call",
	"i/o error",
	"too many open files",
}

// IsRetryableError reports whether err is lock contention or a transient
// filesystem error.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pathError *os.PathError
	var linkError *os.LinkError
	var syscallError syscall.Errno

	if errors.As(err, &pathError) {
		err = pathError.Err
	}
	if errors.As(err, &linkError) {
		err = linkError.Err
	}

	if errors.As(err, &syscallError) {
		switch syscallError {
		case syscall.EAGAIN,
			syscall.EINTR,
			syscall.EBUSY,
			syscall.ETIMEDOUT,
			syscall.EIO:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// RetryWithBackoff runs operation until it succeeds, fails with an error
// IsRetryableError rejects, or runs out of attempts. Waits double from
// InitialWait up to MaxWait.
func RetryWithBackoff[T any](cfg *RetryConfig, operation func() (T, error), operationName string) (T, error) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	var (
		result T
		err    error
	)
	wait := cfg.InitialWait
	for attempt := 1; ; attempt++ {
		if result, err = operation(); err == nil {
			if attempt > 1 {
				DebugLog("%s: ok on attempt %d/%d", operationName, attempt, cfg.MaxAttempts)
			}
			return result, nil
		}
		if !IsRetryableError(err) {
			return result, err
		}
		if attempt >= cfg.MaxAttempts {
			WarnLog("%s: giving up after %d attempts: %v", operationName, attempt, err)
			return result, fmt.Errorf("max retries exceeded (%d attempts): %w", attempt, err)
		}

		DebugLog("%s: attempt %d/%d failed, retrying in %v: %v",
			operationName, attempt, cfg.MaxAttempts, wait, err)
		time.Sleep(wait)
		wait = min(wait*2, cfg.MaxWait)
	}
}

// Retry is RetryWithBackoff for operations without a result
func Retry(cfg *RetryConfig, operation func() error, operationName string) error {
	_, err := RetryWithBackoff(cfg, func() (struct{}, error) {
		return struct{}{}, operation()
	}, operationName)
	return err
}

// RetryableReadFile reads a whole file with retry logic
func RetryableReadFile(path string, cfg *RetryConfig) ([]byte, error) {
	return RetryWithBackoff(cfg, func() ([]byte, error) {
		return os.ReadFile(path)
	}, fmt.Sprintf("read(%s)", path))
}

// RetryableWriteFile writes data to a temp file next to path and renames it
// into place, so readers never observe a partial document.
func RetryableWriteFile(path string, data []byte, cfg *RetryConfig) error {
	if err := RetryableMkdirAll(filepath.Dir(path), 0o755, cfg); err != nil {
		return err
	}
	return Retry(cfg, func() error {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, path)
	}, fmt.Sprintf("write(%s)", path))
}

// RetryableMkdirAll creates a directory with retry logic
func RetryableMkdirAll(path string, perm os.FileMode, cfg *RetryConfig) error {
	return Retry(cfg, func() error {
		return os.MkdirAll(path, perm)
	}, fmt.Sprintf("mkdir(%s)", path))
}
