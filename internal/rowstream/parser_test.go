package rowstream

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"csvrows/internal/tokenizer"

	"golang.org/x/text/encoding/unicode"
)

func TestParser_Scan_Notifications(t *testing.T) {
	testCases := []struct {
		name       string
		content    string
		wantEvents []string
		wantRows   []Row
		wantErrIdx int // -1 when no malformed line is expected
	}{
		{
			name:       "Three lines",
			content:    "a,b\nc,d\ne,f",
			wantEvents: []string{"row:0", "row:1", "row:2", "done"},
			wantRows:   []Row{{"a", "b"}, {"c", "d"}, {"e", "f"}},
			wantErrIdx: -1,
		},
		{
			name:       "Trailing line break dropped",
			content:    "a\nb\n",
			wantEvents: []string{"row:0", "row:1", "done"},
			wantRows:   []Row{{"a"}, {"b"}},
			wantErrIdx: -1,
		},
		{
			name:       "Empty content",
			content:    "",
			wantEvents: []string{"done"},
			wantErrIdx: -1,
		},
		{
			name:       "Blank line in the middle",
			content:    "a\n\nb",
			wantEvents: []string{"row:0", "row:1", "row:2", "done"},
			wantRows:   []Row{{"a"}, {}, {"b"}},
			wantErrIdx: -1,
		},
		{
			name:       "CRLF line endings",
			content:    "a,b\r\nc\r\n",
			wantEvents: []string{"row:0", "row:1", "done"},
			wantRows:   []Row{{"a", "b"}, {"c"}},
			wantErrIdx: -1,
		},
		{
			name:       "Second line malformed",
			content:    "a,b\nbad \\, line\nc,d\n",
			wantEvents: []string{"row:0", "error"},
			wantRows:   []Row{{"a", "b"}},
			wantErrIdx: 1,
		},
		{
			name:       "First line malformed",
			content:    "'open\n",
			wantEvents: []string{"error"},
			wantErrIdx: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			p := NewParser(false)
			p.Subscribe(rec)

			err := p.Scan(tc.content, nil)

			if !reflect.DeepEqual(rec.events, tc.wantEvents) {
				t.Errorf("events = %v, want %v", rec.events, tc.wantEvents)
			}
			if len(tc.wantRows) > 0 && !reflect.DeepEqual(rec.rows, tc.wantRows) {
				t.Errorf("rows = %q, want %q", rec.rows, tc.wantRows)
			}

			if tc.wantErrIdx < 0 {
				if err != nil {
					t.Fatalf("Scan unexpected error: %v", err)
				}
				return
			}
			var lineErr *MalformedLineError
			if !errors.As(err, &lineErr) {
				t.Fatalf("Scan error = %v, want *MalformedLineError", err)
			}
			if lineErr.Line != tc.wantErrIdx {
				t.Errorf("MalformedLineError.Line = %d, want %d", lineErr.Line, tc.wantErrIdx)
			}
			if !errors.Is(err, tokenizer.ErrMalformed) {
				t.Errorf("error does not wrap tokenizer.ErrMalformed: %v", err)
			}
			if len(rec.errs) != 1 || rec.errs[0] != err {
				t.Errorf("OnError received %v, want exactly the returned error", rec.errs)
			}
		})
	}
}

func TestParser_Scan_TransformErrorPropagates(t *testing.T) {
	rec := &recorder{}
	p := NewParser(false)
	p.Subscribe(rec)
	boom := errors.New("boom")

	calls := 0
	err := p.Scan("a\nb\nc", func(row Row, index int) error {
		calls++
		if index == 1 {
			return boom
		}
		return nil
	})

	if err != boom {
		t.Fatalf("Scan error = %v, want the transform error unchanged", err)
	}
	if calls != 2 {
		t.Errorf("transform called %d times, want 2", calls)
	}
	want := []string{"row:0", "row:1"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestParser_Scan_Progress(t *testing.T) {
	p := NewParser(false)
	var got []float64
	p.OnProgress(func(fraction float64) { got = append(got, fraction) })

	if err := p.Scan("a\nb\nc\nd\n", nil); err != nil {
		t.Fatalf("Scan unexpected error: %v", err)
	}
	want := []float64{0.25, 0.5, 0.75, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestParser_ObserverFuncs(t *testing.T) {
	p := NewParser(false)
	rows, done := 0, 0
	p.Subscribe(ObserverFuncs{
		Row:  func(Row, int) { rows++ },
		Done: func() { done++ },
	})
	p.Subscribe(nil)

	if err := p.Scan("1\n2\n", nil); err != nil {
		t.Fatalf("Scan unexpected error: %v", err)
	}
	if rows != 2 || done != 1 {
		t.Errorf("rows = %d, done = %d; want 2 and 1", rows, done)
	}
	// A nil Error func must be tolerated on failure.
	if err := p.Scan("\\", nil); err == nil {
		t.Error("Scan of malformed content returned nil error")
	}
}

func TestParser_Read(t *testing.T) {
	t.Run("Pass-through", func(t *testing.T) {
		path := writeTempFile(t, []byte("x,y\n'a', \"b\"\n1,2\n"))
		rec := &recorder{}
		p := NewParser(false)
		p.Subscribe(rec)

		if err := p.Read(path); err != nil {
			t.Fatalf("Read unexpected error: %v", err)
		}
		want := []string{"row:0", "row:1", "row:2", "done"}
		if !reflect.DeepEqual(rec.events, want) {
			t.Errorf("events = %v, want %v", rec.events, want)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		rec := &recorder{}
		p := NewParser(false)
		p.Subscribe(rec)

		err := p.Read("/nonexistent/dir/input.csv")
		var readErr *FileReadError
		if !errors.As(err, &readErr) {
			t.Fatalf("Read error = %v, want *FileReadError", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error does not wrap os.ErrNotExist: %v", err)
		}
		if !reflect.DeepEqual(rec.events, []string{"error"}) {
			t.Errorf("events = %v, want [error]", rec.events)
		}
	})
}

func TestReadFile_Decoding(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("a,b\nc\n")
	if err != nil {
		t.Fatalf("Failed to encode UTF-16 fixture: %v", err)
	}

	testCases := []struct {
		name    string
		raw     []byte
		want    string
		wantErr error
	}{
		{name: "Plain UTF-8", raw: []byte("a,b\n"), want: "a,b\n"},
		{name: "UTF-8 with BOM", raw: append([]byte{0xEF, 0xBB, 0xBF}, "a,b\n"...), want: "a,b\n"},
		{name: "UTF-16LE with BOM", raw: []byte(utf16), want: "a,b\nc\n"},
		{name: "Invalid UTF-8", raw: []byte{'a', 0xFF, 'b'}, wantErr: ErrInvalidEncoding},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempFile(t, tc.raw)
			got, err := ReadFile(path)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ReadFile error = %v, want %v", err, tc.wantErr)
				}
				var readErr *FileReadError
				if !errors.As(err, &readErr) || readErr.Path != path {
					t.Errorf("ReadFile error = %#v, want *FileReadError for %s", err, path)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadFile unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ReadFile = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReadFile_ReadFailure(t *testing.T) {
	orig := readFileFunc
	defer func() { readFileFunc = orig }()
	denied := errors.New("permission denied")
	readFileFunc = func(string) ([]byte, error) { return nil, denied }

	_, err := ReadFile("whatever.csv")
	if !errors.Is(err, denied) {
		t.Fatalf("ReadFile error = %v, want wrapped %v", err, denied)
	}
}
