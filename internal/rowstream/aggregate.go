package rowstream

import (
	"context"
	"reflect"

	"golang.org/x/sync/errgroup"
)

// Deferred is a unit of work produced for a row and resolved after parsing.
type Deferred[T any] func(ctx context.Context) (T, error)

// Map parses the file at path and collects fn's output for every row, in line order.
// If p.DiscardNulls is set, null-like outputs are left out.
func Map[T any](p *Parser, path string, fn func(row Row, index int) (T, error)) ([]T, error) {
	content, err := p.load(path)
	if err != nil {
		return nil, err
	}
	return mapContent(p, content, fn)
}

func mapContent[T any](p *Parser, content string, fn func(row Row, index int) (T, error)) ([]T, error) {
	out := []T{}
	err := p.Scan(content, func(row Row, index int) error {
		v, err := fn(row, index)
		if err != nil {
			return err
		}
		if p.DiscardNulls && isNull(v) {
			return nil
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Fold parses the file at path and threads an accumulator through fn, starting from seed.
func Fold[A any](p *Parser, path string, seed A, fn func(acc A, row Row, index int) (A, error)) (A, error) {
	content, err := p.load(path)
	if err != nil {
		var zero A
		return zero, err
	}
	return foldContent(p, content, seed, fn)
}

func foldContent[A any](p *Parser, content string, seed A, fn func(acc A, row Row, index int) (A, error)) (A, error) {
	acc := seed
	err := p.Scan(content, func(row Row, index int) error {
		next, err := fn(acc, row, index)
		if err != nil {
			return err
		}
		acc = next
		return nil
	})
	if err != nil {
		var zero A
		return zero, err
	}
	return acc, nil
}

// slot holds one resolved value of All.
type slot[T any] struct {
	value T
}

// All parses the file at path and starts the work fn returns for each row as soon as the row
// is parsed, without waiting for it. Once parsing succeeds it waits for every piece of work
// and returns their values in line order. The first failure cancels the others and is returned.
// A nil Deferred resolves to the zero value, or is skipped when p.DiscardNulls is set.
func All[T any](ctx context.Context, p *Parser, path string, fn func(row Row, index int) Deferred[T]) ([]T, error) {
	content, err := p.load(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var slots []*slot[T]
	scanErr := p.Scan(content, func(row Row, index int) error {
		work := fn(row, index)
		if work == nil {
			if !p.DiscardNulls {
				slots = append(slots, &slot[T]{})
			}
			return nil
		}
		s := &slot[T]{}
		slots = append(slots, s)
		g.Go(func() error {
			v, err := work(gctx)
			if err != nil {
				return err
			}
			s.value = v
			return nil
		})
		return nil
	})
	if scanErr != nil {
		cancel()
		_ = g.Wait()
		return nil, scanErr
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]T, len(slots))
	for i, s := range slots {
		out[i] = s.value
	}
	return out, nil
}

// Sequence parses the file at path, collecting the work fn returns for each row, then runs
// the collected work one piece at a time in line order. It returns the value of the last
// piece (the zero value when there is none). The first failure stops the chain.
func Sequence[T any](ctx context.Context, p *Parser, path string, fn func(row Row, index int) Deferred[T]) (T, error) {
	var last T
	actions, err := Map(p, path, func(row Row, index int) (Deferred[T], error) {
		return fn(row, index), nil
	})
	if err != nil {
		return last, err
	}

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		if action == nil {
			var zero T
			last = zero
			continue
		}
		v, err := action(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		last = v
	}
	return last, nil
}

// isNull reports whether v is nil or a nil pointer, map, slice, func, chan or interface.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
