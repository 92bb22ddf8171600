// Package rowstream drives the tokenizer over a whole file: it splits content into lines,
// tokenizes them in order, notifies observers and aggregates rows in one of several modes.
//
// The aggregation mode is picked by the function used for a call:
//   - (*Parser).Read: pass-through, notifications only.
//   - Map: one output per row, in order.
//   - Fold: a single value threaded through all rows, starting from a seed.
//   - All / Sequence: map mode over deferred work, resolved concurrently or one by one.
package rowstream

import (
	"strings"
	"sync"

	"csvrows/internal/tokenizer"
)

// RowFunc is applied to each parsed row. Returning an error aborts the run.
type RowFunc func(row Row, index int) error

// Parser tokenizes files line by line and publishes rows to its observers.
// It keeps no state between calls; concurrent calls are independent.
type Parser struct {
	// DiscardNulls drops null-like outputs (nil interface, pointer, map, slice, func or chan)
	// produced by the transform in Map mode.
	DiscardNulls bool

	mu        sync.RWMutex
	observers []Observer
	progress  []ProgressFunc
}

// NewParser creates a Parser.
func NewParser(discardNulls bool) *Parser {
	return &Parser{DiscardNulls: discardNulls}
}

// Subscribe registers an observer for all subsequent runs.
func (p *Parser) Subscribe(o Observer) {
	if o == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// OnProgress registers a progress callback for all subsequent runs.
func (p *Parser) OnProgress(fn ProgressFunc) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, fn)
}

// snapshot copies the subscriber lists so a run is unaffected by later subscriptions.
func (p *Parser) snapshot() ([]Observer, []ProgressFunc) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	progress := make([]ProgressFunc, len(p.progress))
	copy(progress, p.progress)
	return observers, progress
}

// Scan processes already loaded content.
//
// Lines are split on '\n'; a final empty line left by a trailing line break is dropped.
// Each line is tokenized and published with OnRow before fn (which may be nil) sees it.
// The first malformed line stops the run with a *MalformedLineError, also published with
// OnError. An error from fn stops the run and is returned as is, without notification.
// OnDone is published only when every line was processed.
func (p *Parser) Scan(content string, fn RowFunc) error {
	observers, progress := p.snapshot()
	lines := splitLines(content)
	total := float64(len(lines))

	for i, line := range lines {
		fields, err := tokenizer.Tokenize(line)
		if err != nil {
			lineErr := &MalformedLineError{Line: i, Err: err}
			for _, o := range observers {
				o.OnError(lineErr)
			}
			return lineErr
		}

		row := Row(fields)
		for _, o := range observers {
			o.OnRow(row, i)
		}
		if fn != nil {
			if err := fn(row, i); err != nil {
				return err
			}
		}

		fraction := float64(i+1) / total
		for _, report := range progress {
			report(fraction)
		}
	}

	for _, o := range observers {
		o.OnDone()
	}
	return nil
}

// Read parses the file at path, publishing notifications without aggregating anything.
// This is the pass-through mode: there is no caller value to hand back, so only the error is returned.
func (p *Parser) Read(path string) error {
	content, err := p.load(path)
	if err != nil {
		return err
	}
	return p.Scan(content, nil)
}

// load reads path, publishing a read failure to the observers.
func (p *Parser) load(path string) (string, error) {
	content, err := ReadFile(path)
	if err != nil {
		observers, _ := p.snapshot()
		for _, o := range observers {
			o.OnError(err)
		}
		return "", err
	}
	return content, nil
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
