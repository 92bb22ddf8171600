package rowstream

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding is wrapped by FileReadError when the file content is not valid text.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8 or BOM-marked UTF-16")

// FileReadError reports that the input file could not be opened, read or decoded.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read file '%s': %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// MalformedLineError reports the 0-based index of the first line that failed tokenization.
type MalformedLineError struct {
	Line int
	Err  error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("line %d is not valid: %v", e.Line, e.Err)
}

func (e *MalformedLineError) Unwrap() error { return e.Err }
