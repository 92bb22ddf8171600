package tokenizer

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{name: "Empty line", line: "", want: []string{}},
		{name: "Only comma", line: ",", want: []string{"", ""}},
		{name: "Two commas", line: ",,", want: []string{"", "", ""}},
		{name: "Only whitespace", line: "   ", want: []string{}},
		{name: "Single bare value", line: "one", want: []string{"one"}},
		{name: "Bare values", line: "1,2,3", want: []string{"1", "2", "3"}},
		{name: "Bare value with inner spaces", line: "one two", want: []string{"one two"}},
		{name: "Inner whitespace run kept", line: "  one   two \t three  ,x", want: []string{"one   two \t three", "x"}},
		{
			name: "Single quoted with escape",
			line: `'one','two with escaped \' single quote', 'three, with, commas'`,
			want: []string{"one", "two with escaped ' single quote", "three, with, commas"},
		},
		{
			name: "Double quoted with escape",
			line: `"one","two with escaped \" double quote", "three, with, commas"`,
			want: []string{"one", `two with escaped " double quote`, "three, with, commas"},
		},
		{
			name: "Whitespace and empty fields",
			line: "   one  ,  'two'  ,  , ' four' ,, 'six ', ' seven ' ,  ",
			want: []string{"one", "two", "", " four", "", "six ", " seven ", ""},
		},
		{name: "Other quote style not unescaped (single)", line: `'say \"hi\"'`, want: []string{`say \"hi\"`}},
		{name: "Other quote style not unescaped (double)", line: `"it\'s"`, want: []string{`it\'s`}},
		{name: "Unrelated escapes kept", line: `"a\nb\\c"`, want: []string{`a\nb\\c`}},
		{name: "Quote inside other quotes", line: `"it's", 'say "hi"'`, want: []string{"it's", `say "hi"`}},
		{name: "Empty quoted values", line: `'',""`, want: []string{"", ""}},
		{name: "Leading empty field", line: ",a", want: []string{"", "a"}},
		{name: "Trailing comma", line: "a,", want: []string{"a", ""}},
		{name: "Carriage return is trimmed", line: "a,b\r", want: []string{"a", "b"}},
		{name: "Vertical tab is whitespace", line: "\va", want: []string{"a"}},
		{name: "No-break space before comma", line: "\u00a0,", want: []string{"", ""}},
		{name: "Only no-break space", line: "\u00a0", want: []string{}},
		{name: "No-break space inside bare value", line: "a\u00a0b", want: []string{"a\u00a0b"}},
		{name: "Unicode spaces around fields", line: "\u3000a\u2003,\u2028b\u202f", want: []string{"a", "b"}},
		{name: "Byte order mark is whitespace", line: "\ufeff'x',y\ufeff", want: []string{"x", "y"}},
		{name: "Zero width space is content", line: "a\u200b", want: []string{"a\u200b"}},
		{name: "Backslash outside quotes", line: `one, that's me!, escaped \, comma`, wantErr: true},
		{name: "Lone backslash", line: `a\b`, wantErr: true},
		{name: "Unterminated single quote", line: `'abc`, wantErr: true},
		{name: "Unterminated double quote", line: `"abc`, wantErr: true},
		{name: "Text after closing quote", line: `'abc'def`, wantErr: true},
		{name: "Quote inside bare value", line: `ab"c`, wantErr: true},
		{name: "Escaped closing quote only", line: `'abc\'`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Tokenize(%q) = %q, want error", tc.line, got)
				}
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("Tokenize(%q) error = %v, want ErrMalformed", tc.line, err)
				}
				if got != nil {
					t.Errorf("Tokenize(%q) returned partial fields %q on error", tc.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Tokenize(%q) unexpected error: %v", tc.line, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q)\n got: %q\nwant: %q", tc.line, got, tc.want)
			}
		})
	}
}

func TestTokenize_FieldCountMatchesCommaRegions(t *testing.T) {
	lines := []string{"a,b,c", ",,,", "a,,c", " , ,", "'x,y',z", "x"}
	for _, line := range lines {
		got, err := Tokenize(line)
		if err != nil {
			t.Fatalf("Tokenize(%q) unexpected error: %v", line, err)
		}
		want := strings.Count(line, ",") + 1
		if strings.Contains(line, "'x,y'") {
			want-- // the quoted comma is part of the value
		}
		if len(got) != want {
			t.Errorf("Tokenize(%q) returned %d fields, want %d (%q)", line, len(got), want, got)
		}
	}
}

func TestValid(t *testing.T) {
	if !valid("") {
		t.Error("valid(\"\") = false, want true")
	}
	if !valid(`'a', "b", c d`) {
		t.Error("valid of well-formed line = false, want true")
	}
	if !valid("\u00a0'a'\v,\u2029b") {
		t.Error("valid of line padded with Unicode whitespace = false, want true")
	}
	if valid(`a \, b`) {
		t.Error("valid of escaped bare comma = true, want false")
	}
}

// untokenize renders fields back into a line, choosing for each field the first form that
// tokenizes back to the same value. Quoting style is not preserved.
func untokenize(t *testing.T, fields []string) string {
	t.Helper()
	parts := make([]string, len(fields))
	for i, f := range fields {
		candidates := []string{
			f,
			`"` + f + `"`,
			`'` + f + `'`,
			`"` + strings.ReplaceAll(f, `"`, `\"`) + `"`,
			`'` + strings.ReplaceAll(f, `'`, `\'`) + `'`,
		}
		found := false
		for _, c := range candidates {
			got, err := Tokenize(c)
			if err == nil && len(got) == 1 && got[0] == f {
				parts[i] = c
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("untokenize: no representation for field %q", f)
		}
	}
	return strings.Join(parts, ",")
}

func TestTokenize_RoundTrip(t *testing.T) {
	lines := []string{
		`'one','two with escaped \' single quote', 'three, with, commas'`,
		`"one","two with escaped \" double quote", "three, with, commas"`,
		"   one  ,  'two'  ,  , ' four' ,, 'six ', ' seven ' ,  ",
		"a b  c,,d",
		`"it's", 'say "hi"'`,
	}
	for _, line := range lines {
		first, err := Tokenize(line)
		if err != nil {
			t.Fatalf("Tokenize(%q) unexpected error: %v", line, err)
		}
		rendered := untokenize(t, first)
		second, err := Tokenize(rendered)
		if err != nil {
			t.Fatalf("Tokenize(%q) (rendered from %q) unexpected error: %v", rendered, line, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip mismatch for %q\n first: %q\nsecond: %q (via %q)", line, first, second, rendered)
		}
	}
}
