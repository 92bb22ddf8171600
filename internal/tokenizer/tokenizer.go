// Package tokenizer splits a single line of delimited text into its fields.
//
// A field is one of:
//   - a single-quoted value: any characters except an unescaped single quote; a backslash
//     pairs with the character that follows it.
//   - a double-quoted value, with the same rules for double quotes.
//   - a bare value: no comma, quote or backslash; inner whitespace between tokens is kept.
//
// Fields are separated by commas and may be surrounded by whitespace, which is trimmed.
package tokenizer

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMalformed is returned when a line does not satisfy the field grammar.
var ErrMalformed = errors.New("malformed line")

// space lists the characters treated as whitespace around and inside fields: the ASCII
// space class plus vertical tab, the Unicode space separators, the line and paragraph
// separators and the zero width no-break space (byte order mark).
const space = `\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}`

// Building blocks of the field grammar.
const (
	ws       = `[` + space + `]`
	bareChar = `[^,'"\\` + space + `]`

	singleBody = `[^'\\]*(?:\\(?s:.)[^'\\]*)*`
	doubleBody = `[^"\\]*(?:\\(?s:.)[^"\\]*)*`
	bareBody   = bareChar + `*(?:` + ws + `+` + bareChar + `+)*`

	fieldPattern = `'` + singleBody + `'|"` + doubleBody + `"|` + bareBody
)

var (
	// validLine matches a whole line made of comma separated fields.
	validLine = regexp.MustCompile(`^` + ws + `*(?:` + fieldPattern + `)` + ws + `*(?:,` + ws + `*(?:` + fieldPattern + `)` + ws + `*)*$`)

	// nextValue consumes one field plus its trailing comma (or the end of the text).
	// Group 1 is a single-quoted body, group 2 a double-quoted body, group 3 a bare value.
	nextValue = regexp.MustCompile(`^` + ws + `*(?:'(` + singleBody + `)'|"(` + doubleBody + `)"|(` + bareBody + `))` + ws + `*(?:,|$)`)

	// trailingComma detects a line whose last field is empty.
	trailingComma = regexp.MustCompile(`,` + ws + `*$`)

	onlySpace = regexp.MustCompile(`^` + ws + `*$`)
)

// Tokenize returns the fields of line, in order.
// An empty line has no fields. A line that does not match the grammar yields ErrMalformed
// and no fields; partial results are never returned.
func Tokenize(line string) ([]string, error) {
	if !valid(line) {
		return nil, ErrMalformed
	}

	fields := []string{}
	pos := 0
	for pos < len(line) {
		rest := line[pos:]
		// Whatever is left is padding after the last field.
		if onlySpace.MatchString(rest) {
			break
		}
		loc := nextValue.FindStringSubmatchIndex(rest)
		if loc == nil || loc[1] == 0 {
			// Unreachable for a validated line; guards against looping forever.
			return nil, ErrMalformed
		}
		fields = append(fields, extract(rest, loc))
		pos += loc[1]
	}

	if trailingComma.MatchString(line) {
		fields = append(fields, "")
	}
	return fields, nil
}

// extract picks the value out of the capture groups reported by nextValue.
func extract(s string, loc []int) string {
	switch {
	case loc[2] >= 0:
		return strings.ReplaceAll(s[loc[2]:loc[3]], `\'`, `'`)
	case loc[4] >= 0:
		return strings.ReplaceAll(s[loc[4]:loc[5]], `\"`, `"`)
	case loc[6] >= 0:
		return s[loc[6]:loc[7]]
	default:
		return ""
	}
}

// valid reports whether line satisfies the field grammar.
func valid(line string) bool {
	return validLine.MatchString(line)
}
