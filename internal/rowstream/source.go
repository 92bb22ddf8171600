package rowstream

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readFileFunc allows overriding os.ReadFile for testing.
var readFileFunc = os.ReadFile

var (
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}
)

// ReadFile loads the whole file at path as text.
// UTF-8 content may carry a BOM, which is removed. UTF-16 is accepted only with a BOM.
// Failures are reported as *FileReadError.
func ReadFile(path string) (string, error) {
	raw, err := readFileFunc(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	content, err := decode(raw)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	return content, nil
}

// decode turns raw file bytes into a string, honoring a leading byte order mark.
func decode(raw []byte) (string, error) {
	isUTF16 := bytes.HasPrefix(raw, utf16BEBOM) || bytes.HasPrefix(raw, utf16LEBOM)
	if !isUTF16 && !utf8.Valid(raw) {
		return "", ErrInvalidEncoding
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return string(out), nil
}
