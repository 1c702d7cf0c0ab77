// Package model implements the record lifecycle: finding, counting,
// saving and deleting rows of one table through a connection facade.
package model

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/query"
	"github.com/rzpsarthak13/orius/internal/schema"
)

// countColumn is the alias of the aggregate produced by query.BuildCount.
const countColumn = "TOTAL"

// Model binds a schema descriptor to a connection facade.
// A Model is safe for concurrent use; the records it produces are not.
type Model struct {
	mu       sync.RWMutex
	schema   *core.Schema
	db       core.Facade
	detached bool

	validator *schema.SchemaValidator
	mapper    *schema.TypeMapper
	opts      options
}

// New creates a model for s executing through db.
func New(s *core.Schema, db core.Facade, opts ...Option) (*Model, error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("connection facade cannot be nil for table %s", s.Table())
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Model{
		schema:    s,
		db:        db,
		validator: schema.NewSchemaValidator(s),
		mapper:    schema.NewTypeMapper(),
		opts:      o,
	}, nil
}

// Schema returns the model's schema descriptor.
func (m *Model) Schema() *core.Schema {
	return m.schema
}

// Table implements query.TableRef.
func (m *Model) Table() string {
	return m.schema.Table()
}

// Detach unregisters the model. Every later operation fails with
// core.ErrNotRegistered.
func (m *Model) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = true
}

// conn returns the facade of a registered model.
func (m *Model) conn() (core.Facade, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", core.ErrNotRegistered)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.detached || m.db == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNotRegistered, m.schema.Table())
	}
	return m.db, nil
}

// Build creates an unsaved record. Every value is validated against the
// schema and stored under its canonical column name.
func (m *Model) Build(values map[string]interface{}) (*Record, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", core.ErrNotRegistered)
	}
	validated, err := m.validator.ValidateRecord(values)
	if err != nil {
		return nil, err
	}
	return &Record{model: m, values: validated}, nil
}

// FindAll returns every row matching q, hydrated and normalized.
// A nil q selects the whole table.
func (m *Model) FindAll(ctx context.Context, q *query.Query) ([]*Record, error) {
	db, err := m.conn()
	if err != nil {
		return nil, err
	}

	table := m.schema.Table()
	frag, err := query.BuildSelect(m.schema, q)
	if err != nil {
		return nil, fmt.Errorf("failed to build select for %s: %w", table, err)
	}

	start := time.Now()
	rows, err := db.Execute(ctx, frag.SQL, frag.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}

	hydrated, err := m.hydrateAll(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate rows of %s: %w", table, err)
	}

	records := make([]*Record, len(hydrated))
	for i, row := range hydrated {
		records[i] = &Record{model: m, values: row}
	}
	log.Printf("[MODEL:%s] findAll returned %d row(s) in %v", table, len(records), time.Since(start))
	return records, nil
}

// FindOne returns the first row matching q, or nil when nothing matches.
// q itself is left untouched.
func (m *Model) FindOne(ctx context.Context, q *query.Query) (*Record, error) {
	records, err := m.FindAll(ctx, q.Clone().WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// FindByPK returns the row whose primary key equals key, or nil.
func (m *Model) FindByPK(ctx context.Context, key interface{}) (*Record, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", core.ErrNotRegistered)
	}
	return m.FindOne(ctx, query.New().Filter(query.Where(m.schema.PrimaryKey(), key)))
}

// Count returns the number of rows matching filter.
func (m *Model) Count(ctx context.Context, filter query.Filter) (int64, error) {
	db, err := m.conn()
	if err != nil {
		return 0, err
	}

	table := m.schema.Table()
	frag, err := query.BuildCount(m.schema, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to build count for %s: %w", table, err)
	}

	rows, err := db.Execute(ctx, frag.SQL, frag.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	row, err := Hydrate(ctx, m.schema, rows[0])
	if err != nil {
		return 0, fmt.Errorf("failed to read count of %s: %w", table, err)
	}
	total, ok := lookup(row, countColumn)
	if !ok || total == nil {
		return 0, nil
	}
	n, err := m.toInt64(total)
	if err != nil {
		return 0, fmt.Errorf("unexpected count value for %s: %w", table, err)
	}
	return n, nil
}

// hydrate materializes blobs of one returned row and normalizes declared
// columns.
func (m *Model) hydrate(ctx context.Context, row core.Row) (core.Row, error) {
	h, err := Hydrate(ctx, m.schema, row)
	if err != nil {
		return nil, err
	}
	return m.validator.NormalizeRow(h), nil
}

func (m *Model) hydrateAll(ctx context.Context, rows []core.Row) ([]core.Row, error) {
	hydrated, err := HydrateAll(ctx, m.schema, rows, m.opts.hydrationConcurrency)
	if err != nil {
		return nil, err
	}
	for i, row := range hydrated {
		hydrated[i] = m.validator.NormalizeRow(row)
	}
	return hydrated, nil
}

// emit publishes a record event and runs hooks. The change is committed
// at this point, so nothing here fails the caller.
func (m *Model) emit(ctx context.Context, op core.Operation, key interface{}, data map[string]interface{}) {
	if m.opts.publisher == nil && len(m.opts.hooks) == 0 {
		return
	}

	event := &core.RecordEvent{
		ID:        uuid.NewString(),
		Table:     m.schema.Table(),
		Operation: op,
		Key:       key,
		Timestamp: time.Now(),
	}
	if data != nil {
		event.Data = m.eventData(data)
	}

	if m.opts.publisher != nil {
		if err := m.opts.publisher.Publish(ctx, event); err != nil {
			log.Printf("[MODEL:%s] WARNING: failed to publish %s event for key %v: %v", event.Table, op, key, err)
		}
	}
	runHooks(ctx, m.opts.hooks, event)
}

// eventData copies the declared, non-blob columns of a record state.
func (m *Model) eventData(values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for name, value := range values {
		col, ok := m.schema.Column(name)
		if !ok || col.Kind.IsBlob() {
			continue
		}
		if _, raw := value.([]byte); raw {
			continue
		}
		out[col.Name] = value
	}
	return out
}

// toInt64 reads an aggregate or key value returned by a driver. Drivers
// report these as integers, floats, decimal strings or raw bytes.
func (m *Model) toInt64(v interface{}) (int64, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
				v = f
			}
		}
	}

	coerced, err := m.mapper.Coerce(core.KindBigInt, v)
	if err != nil {
		return 0, err
	}
	n, ok := coerced.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %v", core.ErrInvalidValue, v)
	}
	return n, nil
}

// lookup finds a column in a row regardless of case.
func lookup(row core.Row, column string) (interface{}, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	for name, v := range row {
		if strings.EqualFold(name, column) {
			return v, true
		}
	}
	return nil, false
}
