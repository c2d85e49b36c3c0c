package util

import "github.com/cockroachdb/errors"

// Sentinel errors for the reconciliation pipeline. Callers wrap them with
// errors.Wrapf and test with errors.Is.
var (
	// ErrMalformedID indicates an identifier that does not match its grammar
	ErrMalformedID = errors.New("malformed id")

	// ErrPatchTargetAmbiguous indicates a patch whose natural key matches zero or several records
	ErrPatchTargetAmbiguous = errors.New("patch target ambiguous")

	// ErrMatchAmbiguous indicates an invalid at-bat with more than one candidate event
	ErrMatchAmbiguous = errors.New("match ambiguous")

	// ErrNoMatch indicates an invalid at-bat with no candidate event
	ErrNoMatch = errors.New("no match")

	// ErrAuditMismatch indicates pitch-app audit rows that do not sum to the game audit
	ErrAuditMismatch = errors.New("audit mismatch")

	// ErrInvalidPatchList indicates a patch list that fails validation
	ErrInvalidPatchList = errors.New("invalid patch list")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
