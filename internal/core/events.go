package core

import (
	"context"
	"time"
)

// Operation is the kind of change a record event describes.
type Operation string

const (
	// OperationInsert is emitted after a successful insert.
	OperationInsert Operation = "INSERT"

	// OperationUpdate is emitted after a successful update.
	OperationUpdate Operation = "UPDATE"

	// OperationDelete is emitted after a successful delete.
	OperationDelete Operation = "DELETE"
)

// RecordEvent describes one committed change to a row.
type RecordEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Table is the upper-cased table name.
	Table string `json:"table"`

	// Operation is INSERT, UPDATE or DELETE.
	Operation Operation `json:"operation"`

	// Key is the primary key value of the row.
	Key interface{} `json:"key"`

	// Data is the record state after the change. Nil for deletes.
	// Blob columns are omitted.
	Data map[string]interface{} `json:"data,omitempty"`

	// Timestamp is when the change was observed.
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher delivers record events to interested consumers.
type EventPublisher interface {
	// Publish delivers one event. Implementations may batch internally.
	Publish(ctx context.Context, event *RecordEvent) error

	// Close flushes pending events and releases resources.
	Close() error
}
