// Package buffer provides line-oriented access to the documents being
// synchronized. The engine only sees the Source interface; the concrete
// implementations cover on-disk files and in-memory documents for tests.
package buffer

import "errors"

// ErrWriteRejected is returned when a buffer mutation or save cannot be
// applied. The engine reacts by discarding in-memory identifier
// assignments for the pass instead of assuming they were persisted.
var ErrWriteRejected = errors.New("buffer write rejected")

// Source is a single editable document.
//
// Line indices are 0-based. Callers that batch several deletes must apply
// them in descending line order so earlier deletes do not shift the
// indices of later ones.
type Source interface {
	// Key identifies the document, typically its file path.
	Key() string

	// ReadLines returns the current lines of the document.
	ReadLines() ([]string, error)

	// ReplaceLine swaps the line at index for text.
	ReplaceLine(index int, text string) error

	// DeleteLine removes the line at index.
	DeleteLine(index int) error

	// Save persists pending mutations. Returns ErrWriteRejected (possibly
	// wrapped) when the host declines the write.
	Save() error
}
