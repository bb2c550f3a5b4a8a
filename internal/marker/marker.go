// Package marker extracts TODO-style annotations from source text and
// stamps them with stable identifiers.
//
// A marker is a single source line containing a recognized tag keyword
// (TODO, FIXME, BUG, HACK, XXX), a separator, free text, and an optional
// trailing identifier annotation of the form [id:<token>]. The identifier
// is the join key between the source line and its remote record; once
// stamped into a line it is never regenerated.
package marker

// Recognized tag keywords. Matching is case-insensitive; the stored kind
// is always the canonical uppercase form.
const (
	KindTodo  = "TODO"
	KindFixme = "FIXME"
	KindBug   = "BUG"
	KindHack  = "HACK"
	KindXXX   = "XXX"
)

// DefaultKind is used when a tag cannot be classified.
const DefaultKind = KindTodo

// Lifecycle statuses. Local markers carry no status annotation, so every
// extracted record is synthesized with StatusOpen. StatusArchived is a
// terminal state that only the remote side can assign.
const (
	StatusOpen     = "Not started"
	StatusArchived = "Archived"
)

// MaxPerDocument bounds how many markers are extracted from a single
// document. Lines beyond the bound are silently skipped to cap memory
// and remote API call volume.
const MaxPerDocument = 100

// Record is one extracted marker.
type Record struct {
	// ID is the stable identifier from the [id:<token>] annotation,
	// or empty if the marker has not been stamped yet.
	ID string

	// Text is the free-form description with the tag prefix and the
	// identifier annotation stripped.
	Text string

	// Kind is the canonical tag keyword (TODO, FIXME, ...).
	Kind string

	// Status is the lifecycle label. Always StatusOpen on extraction;
	// the remote side owns status transitions.
	Status string

	// File is the path of the document the marker was extracted from.
	File string

	// Line is the 0-based line index within the document.
	Line int

	// Raw is the full source line as scanned, used for rewrites.
	Raw string
}

// Assigned reports whether the record carries a stable identifier.
func (r *Record) Assigned() bool {
	return r.ID != ""
}

// Index builds an identifier -> record map from a slice of records.
// Unassigned records are excluded; they must never be joined by position.
func Index(records []Record) map[string]Record {
	idx := make(map[string]Record, len(records))
	for _, r := range records {
		if r.Assigned() {
			idx[r.ID] = r
		}
	}
	return idx
}
