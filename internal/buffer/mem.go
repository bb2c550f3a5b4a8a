package buffer

// MemSource is an in-memory Source used by tests and anywhere a document
// does not live on disk. The RejectWrites flag makes Save fail, which is
// how tests exercise the write-rejected path.
type MemSource struct {
	key          string
	lines        []string
	saved        [][]string
	RejectWrites bool
}

// NewMemSource creates an in-memory document with the given lines.
func NewMemSource(key string, lines ...string) *MemSource {
	l := make([]string, len(lines))
	copy(l, lines)
	return &MemSource{key: key, lines: l}
}

// Key implements Source.
func (m *MemSource) Key() string {
	return m.key
}

// ReadLines implements Source.
func (m *MemSource) ReadLines() ([]string, error) {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out, nil
}

// ReplaceLine implements Source.
func (m *MemSource) ReplaceLine(index int, text string) error {
	if index < 0 || index >= len(m.lines) {
		return ErrWriteRejected
	}
	m.lines[index] = text
	return nil
}

// DeleteLine implements Source.
func (m *MemSource) DeleteLine(index int) error {
	if index < 0 || index >= len(m.lines) {
		return ErrWriteRejected
	}
	m.lines = append(m.lines[:index], m.lines[index+1:]...)
	return nil
}

// Save implements Source. Each successful save appends a snapshot of the
// lines, so tests can assert on save count and content.
func (m *MemSource) Save() error {
	if m.RejectWrites {
		return ErrWriteRejected
	}
	snap := make([]string, len(m.lines))
	copy(snap, m.lines)
	m.saved = append(m.saved, snap)
	return nil
}

// SaveCount returns how many times Save succeeded.
func (m *MemSource) SaveCount() int {
	return len(m.saved)
}

// Lines returns the current document content.
func (m *MemSource) Lines() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}
