package registry

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/model"
)

// ModelMetadata describes a defined model.
type ModelMetadata struct {
	// Table is the upper-cased table name.
	Table string

	// Model is the model bound to the connection.
	Model *model.Model

	// Schema is the descriptor the model was defined with.
	Schema *core.Schema

	// DefinedAt is when the model was defined.
	DefinedAt time.Time
}

// ModelRegistry binds schemas to one connection facade and tracks the
// resulting models by table name.
type ModelRegistry struct {
	mu     sync.RWMutex
	models map[string]*ModelMetadata
	db     core.Facade
	opts   []model.Option
	hooks  *HookManager
}

// NewModelRegistry creates a registry whose models run on db with the given
// default options.
func NewModelRegistry(db core.Facade, hooks *HookManager, opts ...model.Option) *ModelRegistry {
	if hooks == nil {
		hooks = NewHookManager()
	}
	return &ModelRegistry{
		models: make(map[string]*ModelMetadata),
		db:     db,
		opts:   opts,
		hooks:  hooks,
	}
}

// Define creates the model for schema. Options given here are applied after
// the registry defaults. Defining a table again replaces the previous model,
// which is detached.
func (mr *ModelRegistry) Define(ctx context.Context, schema *core.Schema, opts ...model.Option) (*model.Model, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}

	all := make([]model.Option, 0, len(mr.opts)+len(opts))
	all = append(all, mr.opts...)
	all = append(all, opts...)
	m, err := model.New(schema, mr.db, all...)
	if err != nil {
		return nil, err
	}

	table := schema.Table()
	if err := mr.hooks.ExecuteDefineHooks(ctx, table, schema); err != nil {
		return nil, fmt.Errorf("define hook failed for table %q: %w", table, err)
	}

	mr.mu.Lock()
	defer mr.mu.Unlock()

	if existing, exists := mr.models[table]; exists {
		existing.Model.Detach()
		log.Printf("[REGISTRY] Redefined model for table %s", table)
	} else {
		log.Printf("[REGISTRY] Defined model for table %s", table)
	}

	mr.models[table] = &ModelMetadata{
		Table:     table,
		Model:     m,
		Schema:    schema,
		DefinedAt: time.Now(),
	}
	return m, nil
}

// Get returns the model defined for table. Table names are case-insensitive.
func (mr *ModelRegistry) Get(table string) (*model.Model, error) {
	md, err := mr.GetMetadata(table)
	if err != nil {
		return nil, err
	}
	return md.Model, nil
}

// GetMetadata returns a copy of the metadata for table.
func (mr *ModelRegistry) GetMetadata(table string) (*ModelMetadata, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	md, exists := mr.models[core.NormalizeName(table)]
	if !exists {
		return nil, fmt.Errorf("%w: table %q", core.ErrNotRegistered, table)
	}

	copied := *md
	return &copied, nil
}

// Undefine removes the model for table. The removed model is detached, so
// records still holding it fail with core.ErrNotRegistered.
func (mr *ModelRegistry) Undefine(ctx context.Context, table string) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	name := core.NormalizeName(table)
	md, exists := mr.models[name]
	if !exists {
		return fmt.Errorf("%w: table %q", core.ErrNotRegistered, table)
	}

	if err := mr.hooks.ExecuteUndefineHooks(ctx, name, md.Schema); err != nil {
		return fmt.Errorf("undefine hook failed for table %q: %w", name, err)
	}

	md.Model.Detach()
	delete(mr.models, name)
	log.Printf("[REGISTRY] Undefined model for table %s", name)
	return nil
}

// List returns the defined table names in order.
func (mr *ModelRegistry) List() []string {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	names := make([]string, 0, len(mr.models))
	for name := range mr.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of defined models.
func (mr *ModelRegistry) Count() int {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return len(mr.models)
}

// Hooks returns the hook manager of this registry.
func (mr *ModelRegistry) Hooks() *HookManager {
	return mr.hooks
}

// Clear undefines every model. Undefine hooks run for each table; the
// first hook error aborts the clear and leaves the remaining models defined.
func (mr *ModelRegistry) Clear(ctx context.Context) error {
	for _, name := range mr.List() {
		if err := mr.Undefine(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
