package model

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/query"
)

// Record is one row of a model's table. A record is not safe for
// concurrent use.
type Record struct {
	model  *Model
	values map[string]interface{}
}

// Model returns the model the record belongs to.
func (r *Record) Model() *Model {
	return r.model
}

// Get returns the value of column, or nil when it is not set.
// Joined columns of a select are readable under their result names.
func (r *Record) Get(column string) interface{} {
	v, _ := lookup(r.values, column)
	return v
}

// Has reports whether column holds a value, possibly nil.
func (r *Record) Has(column string) bool {
	_, ok := lookup(r.values, column)
	return ok
}

// Set validates value against the schema and assigns it to column.
func (r *Record) Set(column string, value interface{}) error {
	name, coerced, err := r.model.validator.ValidateValue(column, value)
	if err != nil {
		return err
	}
	if r.values == nil {
		r.values = make(map[string]interface{})
	}
	r.values[name] = coerced
	return nil
}

// Values returns a copy of the record state.
func (r *Record) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// PrimaryKeyValue returns the primary key and whether it is set.
// A key that is present but nil counts as unset.
func (r *Record) PrimaryKeyValue() (interface{}, bool) {
	v, ok := lookup(r.values, r.model.schema.PrimaryKey())
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Save writes the record. A record with a primary key is updated,
// anything else is inserted. After Save the record reflects the row the
// database returned.
func (r *Record) Save(ctx context.Context) (*Record, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", core.ErrNotRegistered)
	}
	db, err := r.model.conn()
	if err != nil {
		return nil, err
	}

	if key, ok := r.PrimaryKeyValue(); ok {
		err = r.update(ctx, db, key)
	} else {
		err = r.insert(ctx, db)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) update(ctx context.Context, db core.Facade, key interface{}) error {
	m := r.model
	table := m.schema.Table()
	pk := m.schema.PrimaryKey()

	var values query.Values
	for _, col := range m.schema.Columns() {
		if col.PrimaryKey {
			continue
		}
		if v, ok := r.values[col.Name]; ok {
			values = values.Set(col.Name, v)
		}
	}

	frag, err := query.BuildUpdate(m.schema, values, query.Where(pk, key))
	if err != nil {
		return fmt.Errorf("failed to build update for %s %v: %w", table, key, err)
	}

	log.Printf("[MODEL:%s] updating %s=%v (%d column(s))", table, pk, key, len(values))
	rows, err := db.Execute(ctx, frag.SQL, frag.Args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %v: %w", table, key, err)
	}

	if len(rows) > 0 {
		returned, err := m.hydrate(ctx, rows[0])
		if err != nil {
			return fmt.Errorf("failed to hydrate updated row of %s: %w", table, err)
		}
		for k, v := range returned {
			r.values[k] = v
		}
	}

	m.emit(ctx, core.OperationUpdate, key, r.values)
	return nil
}

func (r *Record) insert(ctx context.Context, db core.Facade) error {
	m := r.model
	table := m.schema.Table()
	pk := m.schema.PrimaryKey()

	payload := make(map[string]interface{}, len(r.values))
	for _, col := range m.schema.Columns() {
		v, ok := r.values[col.Name]
		if !ok || (col.PrimaryKey && v == nil) {
			continue
		}
		payload[col.Name] = v
	}

	release, err := m.resolveAutoIncrement(ctx, db, payload)
	if err != nil {
		return err
	}
	defer release()

	var values query.Values
	for _, col := range m.schema.Columns() {
		if v, ok := payload[col.Name]; ok {
			values = values.Set(col.Name, v)
		}
	}

	frag, err := query.BuildInsert(m.schema, values)
	if err != nil {
		return fmt.Errorf("failed to build insert for %s: %w", table, err)
	}

	log.Printf("[MODEL:%s] inserting %d column(s)", table, len(values))
	rows, err := db.Execute(ctx, frag.SQL, frag.Args...)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	state := payload
	if len(rows) > 0 {
		returned, err := m.hydrate(ctx, rows[0])
		if err != nil {
			return fmt.Errorf("failed to hydrate inserted row of %s: %w", table, err)
		}
		for k, v := range returned {
			state[k] = v
		}
	}
	r.values = state

	key, _ := r.PrimaryKeyValue()
	log.Printf("[MODEL:%s] inserted %s=%v", table, pk, key)
	m.emit(ctx, core.OperationInsert, key, r.values)
	return nil
}

// Delete removes the record's row by primary key and clears the record.
func (r *Record) Delete(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("%w: nil record", core.ErrNotRegistered)
	}
	m := r.model
	db, err := m.conn()
	if err != nil {
		return err
	}

	table := m.schema.Table()
	pk := m.schema.PrimaryKey()
	key, ok := r.PrimaryKeyValue()
	if !ok {
		return fmt.Errorf("%w: cannot delete from %s without %s", core.ErrMissingPrimaryKey, table, pk)
	}

	frag, err := query.BuildDelete(m.schema, query.Where(pk, key))
	if err != nil {
		return fmt.Errorf("failed to build delete for %s %v: %w", table, key, err)
	}

	log.Printf("[MODEL:%s] deleting %s=%v", table, pk, key)
	if affecter, ok := db.(core.RowsAffecter); ok {
		n, err := affecter.ExecAffected(ctx, frag.SQL, frag.Args...)
		if err != nil {
			return fmt.Errorf("failed to delete %s %v: %w", table, key, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s %s=%v", core.ErrNoRowsAffected, table, pk, key)
		}
	} else if _, err := db.Execute(ctx, frag.SQL, frag.Args...); err != nil {
		return fmt.Errorf("failed to delete %s %v: %w", table, key, err)
	}

	r.values = make(map[string]interface{})
	m.emit(ctx, core.OperationDelete, key, nil)
	return nil
}

// IsNotFound reports whether err means a delete matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNoRowsAffected)
}

// String renders the record for logs.
func (r *Record) String() string {
	if r == nil || r.model == nil {
		return "<nil record>"
	}
	key, ok := r.PrimaryKeyValue()
	if !ok {
		return fmt.Sprintf("%s{new}", strings.ToLower(r.model.schema.Table()))
	}
	return fmt.Sprintf("%s{%s=%v}", strings.ToLower(r.model.schema.Table()), r.model.schema.PrimaryKey(), key)
}
