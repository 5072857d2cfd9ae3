// Package errors defines the error kinds surfaced by the matching engine and
// the screening service, plus helpers to classify them for reporting.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrUnknownSkill      = errors.New("unknown skill reference")
	ErrNotIngested       = errors.New("vocabulary not ingested")
	ErrJobNotFound       = errors.New("job not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrCancelled         = errors.New("screening cancelled")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Kind returns a stable snake_case label for err, used in per-candidate
// failure reports and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, ErrUnknownSkill):
		return "unknown_skill_reference"
	case errors.Is(err, ErrNotIngested):
		return "vocabulary_not_ingested"
	case errors.Is(err, ErrJobNotFound):
		return "job_not_found"
	case errors.Is(err, ErrCandidateNotFound):
		return "candidate_not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

var sentinelsByKind = map[string]error{
	"extraction_failed":       ErrExtractionFailed,
	"unknown_skill_reference": ErrUnknownSkill,
	"vocabulary_not_ingested": ErrNotIngested,
	"job_not_found":           ErrJobNotFound,
	"candidate_not_found":     ErrCandidateNotFound,
	"invalid_input":           ErrInvalidInput,
	"cancelled":               ErrCancelled,
}

// FromKind rebuilds an error from a Kind label and the message it was
// reported with, such that Kind and errors.Is agree with the original. For
// an AppError the rebuilt Error() text is unchanged.
func FromKind(kind, message string) error {
	sentinel, ok := sentinelsByKind[kind]
	if !ok {
		return errors.New(message)
	}
	return New(sentinel, strings.TrimPrefix(message, sentinel.Error()+": "))
}

func ExitCode(err error) int {
	switch Kind(err) {
	case "":
		return 0
	case "invalid_input", "unknown_skill_reference":
		return 2
	case "job_not_found", "candidate_not_found":
		return 3
	case "extraction_failed":
		return 4
	default:
		return 1
	}
}
