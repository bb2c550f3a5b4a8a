package marker

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// tokenPattern is the full identifier token alphabet.
var tokenPattern = regexp.MustCompile(`^[0-9a-f-]+$`)

// MintID generates a new low-collision identifier token. UUIDv4 in its
// canonical string form stays within the lowercase-hex-and-hyphen
// annotation alphabet.
func MintID() string {
	return uuid.NewString()
}

// ValidToken reports whether tok fits the annotation alphabet.
func ValidToken(tok string) bool {
	return tok != "" && tokenPattern.MatchString(tok)
}

// StampLine returns line with the identifier annotation [id:<id>] appended.
// Any existing trailing annotation, well-formed or malformed, is replaced.
//
// StampLine is idempotent: stamping an already-stamped, otherwise unchanged
// line with the same identifier yields byte-identical output.
func StampLine(line, id string) string {
	base := annotationPattern.ReplaceAllString(line, "")
	base = strings.TrimRight(base, " \t")
	return base + " [id:" + id + "]"
}
