package core

import (
	"context"
	"io"
)

// Row is one result row keyed by column name.
// Blob columns may hold a LazyBlob until the row is hydrated.
type Row map[string]interface{}

// Facade executes SQL against a pooled connection.
// This is the only way the ORM core talks to the database.
type Facade interface {
	// Execute runs query with args bound positionally to its "?" placeholders
	// and returns every row the statement produced. Statements without a
	// result set return an empty slice.
	// The connection is held for the duration of the call only.
	Execute(ctx context.Context, query string, args ...interface{}) ([]Row, error)
}

// RowsAffecter is implemented by facades that can report how many rows a
// statement without a result set touched.
type RowsAffecter interface {
	// ExecAffected runs a statement and returns the number of affected rows.
	ExecAffected(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// LazyBlob is a blob value that has not been read yet.
// Open starts the stream; the returned reader yields the blob content
// chunk by chunk and reports io.EOF on completion.
type LazyBlob interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
