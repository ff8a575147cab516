package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// DependencyWriteFailedError is returned when the store fails while resolving
// or writing one entity. Entity is the table-level name, Key the natural key.
type DependencyWriteFailedError struct {
	Entity string
	Key    string
	Cause  error
}

func (e *DependencyWriteFailedError) Error() string {
	return fmt.Sprintf("failed to write %s %q: %v", e.Entity, e.Key, e.Cause)
}

func (e *DependencyWriteFailedError) Unwrap() error {
	return e.Cause
}

func NewDependencyWriteFailed(entity, key string, cause error) error {
	return &DependencyWriteFailedError{Entity: entity, Key: key, Cause: cause}
}

type InsertOutcome int

const (
	InsertOutcomeInserted InsertOutcome = iota
	InsertOutcomeAlreadyExists
	InsertOutcomeFailed
)

func (o InsertOutcome) String() string {
	switch o {
	case InsertOutcomeInserted:
		return "inserted"
	case InsertOutcomeAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

// InsertResult is the tagged outcome of a single-row insert keyed by a unique column.
// Row is set only for InsertOutcomeInserted, Err only for InsertOutcomeFailed.
type InsertResult[T any] struct {
	Outcome InsertOutcome
	Row     *T
	Err     error
}

func Inserted[T any](row *T) InsertResult[T] {
	return InsertResult[T]{Outcome: InsertOutcomeInserted, Row: row}
}

func AlreadyExists[T any]() InsertResult[T] {
	return InsertResult[T]{Outcome: InsertOutcomeAlreadyExists}
}

func InsertFailed[T any](err error) InsertResult[T] {
	return InsertResult[T]{Outcome: InsertOutcomeFailed, Err: err}
}
