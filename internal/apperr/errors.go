// Package apperr defines the error taxonomy shared by the stores and the API.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath  = errors.New("invalid path")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrNotEmpty     = errors.New("folder is not empty")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotEmptyError is returned by a non-forced delete of a populated folder.
// It carries the counts the caller needs to ask for confirmation.
type NotEmptyError struct {
	FilesCount   int
	FoldersCount int
	TotalItems   int
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("folder is not empty: %d files, %d folders", e.FilesCount, e.FoldersCount)
}

// Is lets errors.Is match NotEmptyError against ErrNotEmpty.
func (e *NotEmptyError) Is(target error) bool {
	return target == ErrNotEmpty
}

// InvalidPath returns an ErrInvalidPath-class error with a client-safe detail.
func InvalidPath(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPath, fmt.Sprintf(format, args...))
}

// InvalidInput returns an ErrInvalidInput-class error with a client-safe detail.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound-class error with a client-safe detail.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflict returns an ErrConflict-class error with a client-safe detail.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}
