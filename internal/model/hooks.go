package model

import (
	"context"
	"log"

	"github.com/rzpsarthak13/orius/internal/core"
)

// Hook observes committed record changes.
// Hooks run synchronously after the statement succeeded, in registration order.
type Hook interface {
	// AfterSave is called after a successful insert or update.
	AfterSave(ctx context.Context, event *core.RecordEvent) error

	// AfterDelete is called after a successful delete.
	AfterDelete(ctx context.Context, event *core.RecordEvent) error
}

// HookFunc lets plain functions be used as a Hook.
type HookFunc struct {
	AfterSaveFunc   func(ctx context.Context, event *core.RecordEvent) error
	AfterDeleteFunc func(ctx context.Context, event *core.RecordEvent) error
}

// AfterSave calls AfterSaveFunc if it's not nil.
func (f HookFunc) AfterSave(ctx context.Context, event *core.RecordEvent) error {
	if f.AfterSaveFunc != nil {
		return f.AfterSaveFunc(ctx, event)
	}
	return nil
}

// AfterDelete calls AfterDeleteFunc if it's not nil.
func (f HookFunc) AfterDelete(ctx context.Context, event *core.RecordEvent) error {
	if f.AfterDeleteFunc != nil {
		return f.AfterDeleteFunc(ctx, event)
	}
	return nil
}

// runHooks executes every hook for event. The change is already committed,
// so failures are logged and never returned.
func runHooks(ctx context.Context, hooks []Hook, event *core.RecordEvent) {
	for i, hook := range hooks {
		var err error
		if event.Operation == core.OperationDelete {
			err = hook.AfterDelete(ctx, event)
		} else {
			err = hook.AfterSave(ctx, event)
		}
		if err != nil {
			log.Printf("[MODEL:%s] WARNING: hook %d failed for %s %v: %v", event.Table, i, event.Operation, event.Key, err)
		}
	}
}
