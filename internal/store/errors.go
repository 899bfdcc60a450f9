package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a train or station is not in its table.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when adding a train id that already exists.
	ErrConflict = errors.New("already exists")
	// ErrDocumentNotFound is returned by a Persister when a document was never saved.
	ErrDocumentNotFound = errors.New("document not found")
)

// PersistError reports that the in-memory tables were changed but could not be
// written to storage. The change is not rolled back.
type PersistError struct {
	Document string
	Err      error
}

func (e *PersistError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("persisting store: %v", e.Err)
	}
	return fmt.Sprintf("persisting %s document: %v", e.Document, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// LoadError reports a persisted document that exists but could not be used.
type LoadError struct {
	Document string
	Status   DocumentStatus
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s document (%s): %v", e.Document, e.Status, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
