package model

import (
	"context"
	"fmt"
	"log"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/query"
)

// LockKey returns the locker key guarding auto-increment values of table.
func LockKey(table string) string {
	return "orius:autoinc:" + table
}

// resolveAutoIncrement fills every auto-increment column missing from
// payload, either from its sequence or as MAX+1. The returned release
// func must be called once the insert finished; it frees the lock taken
// for MAX+1, if any.
func (m *Model) resolveAutoIncrement(ctx context.Context, db core.Facade, payload map[string]interface{}) (func(), error) {
	noop := func() {}
	table := m.schema.Table()

	var missing []core.Column
	needsMax := false
	for _, col := range m.schema.AutoIncrementColumns() {
		if v, ok := payload[col.Name]; ok && v != nil {
			continue
		}
		missing = append(missing, col)
		if col.Sequence == "" {
			needsMax = true
		}
	}
	if len(missing) == 0 {
		return noop, nil
	}

	if needsMax && m.opts.strictSequences {
		return noop, fmt.Errorf("%w: %s has auto-increment columns without a sequence", core.ErrNoSequence, table)
	}

	release := noop
	if needsMax && m.opts.locker != nil {
		unlock, err := m.opts.locker.Acquire(ctx, LockKey(table), m.opts.lockTTL)
		if err != nil {
			return noop, fmt.Errorf("failed to acquire auto-increment lock for %s: %w", table, err)
		}
		release = func() {
			if err := unlock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Printf("[MODEL:%s] WARNING: failed to release auto-increment lock: %v", table, err)
			}
		}
	}

	for _, col := range missing {
		var (
			value int64
			err   error
		)
		if col.Sequence != "" {
			value, err = m.nextSequenceValue(ctx, db, col.Sequence)
		} else {
			value, err = m.nextMaxValue(ctx, db, col.Name)
		}
		if err != nil {
			release()
			return noop, err
		}
		log.Printf("[MODEL:%s] resolved %s=%d", table, col.Name, value)
		payload[col.Name] = value
	}
	return release, nil
}

// nextSequenceValue reads the next value of a sequence.
func (m *Model) nextSequenceValue(ctx context.Context, db core.Facade, sequence string) (int64, error) {
	frag, err := query.BuildNextValue(sequence)
	if err != nil {
		return 0, err
	}
	rows, err := db.Execute(ctx, frag.SQL, frag.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", sequence, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: sequence %s returned no row", core.ErrNoSequence, sequence)
	}

	row, err := Hydrate(ctx, m.schema, rows[0])
	if err != nil {
		return 0, err
	}
	v, ok := lookup(row, query.NextValueColumn)
	if !ok && len(row) == 1 {
		for _, only := range row {
			v, ok = only, true
		}
	}
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: sequence %s returned no value", core.ErrNoSequence, sequence)
	}

	n, err := m.toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("unexpected value from sequence %s: %w", sequence, err)
	}
	return n, nil
}

// nextMaxValue returns MAX(column)+1, or 1 on an empty table. Without a
// locker, concurrent callers can observe the same maximum.
func (m *Model) nextMaxValue(ctx context.Context, db core.Facade, column string) (int64, error) {
	table := m.schema.Table()
	frag, err := query.BuildMaxID(m.schema, column)
	if err != nil {
		return 0, err
	}
	rows, err := db.Execute(ctx, frag.SQL, frag.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to read MAX(%s) of %s: %w", column, table, err)
	}

	var current int64
	if len(rows) > 0 {
		row, err := Hydrate(ctx, m.schema, rows[0])
		if err != nil {
			return 0, err
		}
		if v, ok := lookup(row, query.MaxIDColumn); ok && v != nil {
			current, err = m.toInt64(v)
			if err != nil {
				return 0, fmt.Errorf("unexpected MAX(%s) of %s: %w", column, table, err)
			}
		}
	}
	return current + 1, nil
}
