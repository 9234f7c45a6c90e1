package tickbook

import (
	"context"
	"fmt"
	"sort"

	"github.com/oakledger/tickbook/date"
	"github.com/oakledger/tickbook/kvstore"
)

// CursorState is the explicit state of a ticker's backfill resumption
// cursor. A persisted value that does not parse as a date means the
// backfill has not started (or the value was corrupted); Complete is
// never persisted, it is represented by deleting the key.
type CursorState int

const (
	CursorNotStarted CursorState = iota
	CursorInProgress
)

// Cursor is the resumption boundary of one ticker's backfill.
type Cursor struct {
	state    CursorState
	boundary date.Date
}

// cursorFromValue decodes a persisted cursor value. Only an exact
// YYYY-MM-DD value counts as in progress.
func cursorFromValue(value string) Cursor {
	d, err := date.Parse(value)
	if err != nil {
		return Cursor{state: CursorNotStarted}
	}
	return Cursor{state: CursorInProgress, boundary: d}
}

// InProgress reports whether the cursor carries a valid boundary.
func (c Cursor) InProgress() bool { return c.state == CursorInProgress }

// Boundary returns the resumption boundary date. Only meaningful when
// InProgress.
func (c Cursor) Boundary() date.Date { return c.boundary }

// CursorSet is the in-memory staged view of the persisted per-ticker
// cursors. All mutation during an invocation happens here; Flush
// applies the net effect to the backing key-value store at the end.
type CursorSet struct {
	cursors map[string]Cursor
	dirty   map[string]bool // tickers whose persisted value must change
}

// LoadCursors reads every persisted cursor into a staged set.
func LoadCursors(ctx context.Context, kv kvstore.Store) (*CursorSet, error) {
	all, err := kv.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cursors: %w", err)
	}
	cs := &CursorSet{
		cursors: make(map[string]Cursor, len(all)),
		dirty:   make(map[string]bool),
	}
	for ticker, value := range all {
		cs.cursors[ticker] = cursorFromValue(value)
	}
	return cs, nil
}

// NewCursorSet returns an empty staged set. For tests.
func NewCursorSet() *CursorSet {
	return &CursorSet{cursors: make(map[string]Cursor), dirty: make(map[string]bool)}
}

// Get returns the ticker's cursor; a missing entry is NotStarted.
func (cs *CursorSet) Get(ticker string) Cursor { return cs.cursors[ticker] }

// Set stages a new boundary for the ticker. Progression is strictly
// monotonic: a boundary at or after the current one violates the
// resumption invariant and is rejected.
func (cs *CursorSet) Set(ticker string, boundary date.Date) error {
	if cur := cs.cursors[ticker]; cur.InProgress() && !boundary.Before(cur.boundary) {
		return fmt.Errorf("cursor for %s must strictly decrease: have %s, got %s", ticker, cur.boundary, boundary)
	}
	cs.cursors[ticker] = Cursor{state: CursorInProgress, boundary: boundary}
	cs.dirty[ticker] = true
	return nil
}

// Delete stages the removal of the ticker's cursor (backfill complete,
// or ticker purged).
func (cs *CursorSet) Delete(ticker string) {
	if _, ok := cs.cursors[ticker]; !ok {
		return
	}
	delete(cs.cursors, ticker)
	cs.dirty[ticker] = true
}

// Tickers returns the tickers that currently have a staged cursor, sorted.
func (cs *CursorSet) Tickers() []string {
	out := make([]string, 0, len(cs.cursors))
	for t := range cs.cursors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Flush applies every staged change to the backing store.
func (cs *CursorSet) Flush(ctx context.Context, kv kvstore.Store) error {
	dirty := make([]string, 0, len(cs.dirty))
	for t := range cs.dirty {
		dirty = append(dirty, t)
	}
	sort.Strings(dirty)
	for _, ticker := range dirty {
		cur, ok := cs.cursors[ticker]
		if !ok {
			if err := kv.Delete(ctx, ticker); err != nil {
				return fmt.Errorf("deleting cursor for %s: %w", ticker, err)
			}
			continue
		}
		if err := kv.Set(ctx, ticker, cur.boundary.String()); err != nil {
			return fmt.Errorf("persisting cursor for %s: %w", ticker, err)
		}
	}
	cs.dirty = make(map[string]bool)
	return nil
}
