package marker

import (
	"regexp"
	"strings"
)

// tagPattern matches the first recognized tag keyword followed by a colon
// or whitespace separator. The keyword must stand on word boundaries so
// that e.g. "METODO" does not match.
var tagPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|BUG|HACK|XXX)\b[:\s][ \t]*`)

// idPattern matches the trailing identifier annotation. The token alphabet
// is lowercase hex plus hyphen, anchored at end of line.
var idPattern = regexp.MustCompile(`[ \t]*\[id:([0-9a-f-]+)\][ \t]*$`)

// annotationPattern matches any trailing bracketed id annotation, including
// malformed tokens. Used by the stamper to replace broken annotations.
var annotationPattern = regexp.MustCompile(`[ \t]*\[id:[^\]]*\][ \t]*$`)

// Extract scans the document lines for markers and returns them in line
// order. At most MaxPerDocument records are returned; further matches are
// skipped without error. Extraction is a pure read: it never mutates lines.
//
// A line with an identifier annotation but no preceding tag is not a match.
// A line with several tag keywords is classified by the leftmost one.
func Extract(file string, lines []string) []Record {
	var records []Record
	for i, line := range lines {
		if len(records) >= MaxPerDocument {
			break
		}
		rec, ok := ParseLine(line)
		if !ok {
			continue
		}
		rec.File = file
		rec.Line = i
		records = append(records, rec)
	}
	return records
}

// ParseLine classifies a single line. It returns the extracted record and
// true on a match, or a zero record and false otherwise.
func ParseLine(line string) (Record, bool) {
	loc := tagPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Record{}, false
	}

	kind := canonicalKind(line[loc[2]:loc[3]])
	rest := line[loc[1]:]

	id := ""
	if m := idPattern.FindStringSubmatch(rest); m != nil {
		id = m[1]
		rest = idPattern.ReplaceAllString(rest, "")
	}

	return Record{
		ID:     id,
		Text:   strings.TrimSpace(rest),
		Kind:   kind,
		Status: StatusOpen,
		Raw:    line,
	}, true
}

// canonicalKind maps a matched keyword to its canonical uppercase form.
func canonicalKind(tag string) string {
	switch strings.ToUpper(tag) {
	case KindTodo:
		return KindTodo
	case KindFixme:
		return KindFixme
	case KindBug:
		return KindBug
	case KindHack:
		return KindHack
	case KindXXX:
		return KindXXX
	default:
		return DefaultKind
	}
}

// RewriteText produces a copy of line with its free-text segment replaced
// by newText, preserving the prefix (comment leader, tag and separator)
// and the identifier annotation. Lines that do not parse as markers are
// returned unchanged.
func RewriteText(line, newText string) string {
	loc := tagPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return line
	}

	prefix := line[:loc[1]]
	rest := line[loc[1]:]

	if m := idPattern.FindStringSubmatch(rest); m != nil {
		return prefix + newText + " [id:" + m[1] + "]"
	}
	return prefix + newText
}
