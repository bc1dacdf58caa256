// Package services implements the review engine: the write coordinator that
// applies grades to word states, queue selection, replica merge for
// multi-device sync, and log replay for auditing.
//
// Errors defined here are returned by service methods and mapped to HTTP
// results by the handler layer.
package services

import "errors"

var (
	// ErrInvalidGrade is returned for grades outside Again..Easy on a path
	// that requires one. Nothing is written.
	ErrInvalidGrade = errors.New("grade must be between 1 and 4")

	// ErrInvalidLemma is returned when a lemma is blank or too long after
	// normalization.
	ErrInvalidLemma = errors.New("lemma is empty or too long")

	// ErrInvalidMode is returned for an unknown review mode.
	ErrInvalidMode = errors.New("unknown review mode")

	// ErrUnknownWord is returned when a path that cannot create a word state
	// (fallback grading, ignore) targets a lemma that was never captured.
	ErrUnknownWord = errors.New("unknown word")

	// ErrConcurrentWriteConflict is returned when optimistic writes kept
	// losing to other writers after the configured number of attempts.
	// Callers may retry.
	ErrConcurrentWriteConflict = errors.New("concurrent write conflict")
)
