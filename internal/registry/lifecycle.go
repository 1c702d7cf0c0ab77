package registry

import (
	"context"
	"sync"

	"github.com/rzpsarthak13/orius/internal/core"
)

// DefinitionHook is called when a model is defined on or removed from a
// connection. Hooks run synchronously.
type DefinitionHook interface {
	// OnDefine is called before a model is made available.
	// If this hook returns an error, the definition fails.
	OnDefine(ctx context.Context, table string, schema *core.Schema) error

	// OnUndefine is called before a model is removed.
	// If this hook returns an error, the model stays defined.
	OnUndefine(ctx context.Context, table string, schema *core.Schema) error
}

// DefinitionHookFunc adapts plain functions to DefinitionHook.
type DefinitionHookFunc struct {
	OnDefineFunc   func(ctx context.Context, table string, schema *core.Schema) error
	OnUndefineFunc func(ctx context.Context, table string, schema *core.Schema) error
}

// OnDefine calls the OnDefineFunc if it's not nil.
func (f DefinitionHookFunc) OnDefine(ctx context.Context, table string, schema *core.Schema) error {
	if f.OnDefineFunc != nil {
		return f.OnDefineFunc(ctx, table, schema)
	}
	return nil
}

// OnUndefine calls the OnUndefineFunc if it's not nil.
func (f DefinitionHookFunc) OnUndefine(ctx context.Context, table string, schema *core.Schema) error {
	if f.OnUndefineFunc != nil {
		return f.OnUndefineFunc(ctx, table, schema)
	}
	return nil
}

// HookManager holds the definition hooks of a registry.
type HookManager struct {
	mu    sync.RWMutex
	hooks []DefinitionHook
}

// NewHookManager creates an empty hook manager.
func NewHookManager() *HookManager {
	return &HookManager{
		hooks: make([]DefinitionHook, 0),
	}
}

// RegisterHook adds a hook. Hooks are executed in the order they were registered.
func (hm *HookManager) RegisterHook(hook DefinitionHook) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.hooks = append(hm.hooks, hook)
}

// snapshot copies the hook list so hooks run without the lock held.
func (hm *HookManager) snapshot() []DefinitionHook {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	hooks := make([]DefinitionHook, len(hm.hooks))
	copy(hooks, hm.hooks)
	return hooks
}

// ExecuteDefineHooks runs every OnDefine hook in order and stops at the
// first error.
func (hm *HookManager) ExecuteDefineHooks(ctx context.Context, table string, schema *core.Schema) error {
	for _, hook := range hm.snapshot() {
		if err := hook.OnDefine(ctx, table, schema); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteUndefineHooks runs every OnUndefine hook in order and stops at the
// first error.
func (hm *HookManager) ExecuteUndefineHooks(ctx context.Context, table string, schema *core.Schema) error {
	for _, hook := range hm.snapshot() {
		if err := hook.OnUndefine(ctx, table, schema); err != nil {
			return err
		}
	}
	return nil
}

// HookCount returns the number of registered hooks.
func (hm *HookManager) HookCount() int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return len(hm.hooks)
}
