package buffer

import (
	"fmt"
	"os"
	"strings"
)

// FileSource is a Source backed by a file on disk. Lines are loaded on
// first read, mutations are held in memory, and Save writes the whole
// file back.
type FileSource struct {
	path       string
	lines      []string
	loaded     bool
	dirty      bool
	trailingNL bool
	perm       os.FileMode
}

// NewFileSource creates a Source for the file at path. The file is not
// read until the first ReadLines call.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, perm: 0644}
}

// Key implements Source.
func (f *FileSource) Key() string {
	return f.path
}

// ReadLines implements Source.
func (f *FileSource) ReadLines() ([]string, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

// ReplaceLine implements Source.
func (f *FileSource) ReplaceLine(index int, text string) error {
	if err := f.load(); err != nil {
		return err
	}
	if index < 0 || index >= len(f.lines) {
		return fmt.Errorf("replace line %d: %w: index out of range", index, ErrWriteRejected)
	}
	if f.lines[index] == text {
		return nil
	}
	f.lines[index] = text
	f.dirty = true
	return nil
}

// DeleteLine implements Source.
func (f *FileSource) DeleteLine(index int) error {
	if err := f.load(); err != nil {
		return err
	}
	if index < 0 || index >= len(f.lines) {
		return fmt.Errorf("delete line %d: %w: index out of range", index, ErrWriteRejected)
	}
	f.lines = append(f.lines[:index], f.lines[index+1:]...)
	f.dirty = true
	return nil
}

// Save implements Source. Saving an unmodified buffer is a no-op.
func (f *FileSource) Save() error {
	if !f.loaded || !f.dirty {
		return nil
	}

	content := strings.Join(f.lines, "\n")
	if f.trailingNL {
		content += "\n"
	}

	if err := os.WriteFile(f.path, []byte(content), f.perm); err != nil {
		return fmt.Errorf("save %s: %w: %v", f.path, ErrWriteRejected, err)
	}
	f.dirty = false
	return nil
}

// load reads the file into memory once, preserving whether it ended with
// a newline so Save can round-trip the file byte-for-byte.
func (f *FileSource) load() error {
	if f.loaded {
		return nil
	}

	info, err := os.Stat(f.path)
	if err == nil {
		f.perm = info.Mode().Perm()
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}

	text := string(data)
	f.trailingNL = strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		f.lines = []string{}
	} else {
		f.lines = strings.Split(text, "\n")
	}
	f.loaded = true
	return nil
}
