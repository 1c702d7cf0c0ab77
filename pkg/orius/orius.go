// Package orius is a small active-record layer for Firebird.
//
// A Schema describes one table. Binding it to a Client yields a Model,
// which finds, counts and builds Records; a Record saves and deletes
// itself. Queries are built from Filters of column conditions and
// rendered in the Firebird dialect (OFFSET/FETCH paging, RETURNING *,
// sequences read with NEXT VALUE FOR). BLOB columns come back as strings
// or bytes, never as open handles.
package orius

import (
	"github.com/rzpsarthak13/orius/internal/catalog"
	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/model"
	"github.com/rzpsarthak13/orius/internal/query"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// Schema and record types.
type (
	Schema      = core.Schema
	Column      = core.Column
	DataKind    = core.DataKind
	Row         = core.Row
	Model       = model.Model
	Record      = model.Record
	ModelOption = model.Option
	Hook        = model.Hook
	HookFunc    = model.HookFunc
	RecordEvent = core.RecordEvent
	Locker      = core.Locker
	Publisher   = core.EventPublisher
	Inspector   = catalog.Inspector

	DefinitionHook     = registry.DefinitionHook
	DefinitionHookFunc = registry.DefinitionHookFunc
)

// Data kinds.
const (
	KindString    = core.KindString
	KindInteger   = core.KindInteger
	KindBigInt    = core.KindBigInt
	KindText      = core.KindText
	KindBinary    = core.KindBinary
	KindDate      = core.KindDate
	KindTimestamp = core.KindTimestamp
	KindDecimal   = core.KindDecimal
)

// NewSchema builds a schema; exactly one column must be the primary key.
func NewSchema(table string, columns ...Column) (*Schema, error) {
	return core.NewSchema(table, columns...)
}

// Query types.
type (
	Query     = query.Query
	Filter    = query.Filter
	Term      = query.Term
	Condition = query.Condition
	Direction = query.Direction
	Include   = query.Include
)

// Sort directions.
const (
	Asc  = query.Asc
	Desc = query.Desc
)

// NewQuery returns an empty query: every column, no filter, no paging.
func NewQuery() *Query {
	return query.New()
}

// Filter and condition constructors.
var (
	Where      = query.Where
	Eq         = query.Eq
	Ne         = query.Ne
	Gt         = query.Gt
	Gte        = query.Gte
	Lt         = query.Lt
	Lte        = query.Lte
	Like       = query.Like
	NotLike    = query.NotLike
	In         = query.In
	NotIn      = query.NotIn
	Between    = query.Between
	IsNotFound = model.IsNotFound
)

// Errors.
var (
	ErrMissingPrimaryKey  = core.ErrMissingPrimaryKey
	ErrNothingToUpdate    = core.ErrNothingToUpdate
	ErrNotRegistered      = core.ErrNotRegistered
	ErrInvalidSchema      = core.ErrInvalidSchema
	ErrUnknownColumn      = core.ErrUnknownColumn
	ErrInvalidValue       = core.ErrInvalidValue
	ErrMalformedCondition = core.ErrMalformedCondition
	ErrInvalidIdentifier  = core.ErrInvalidIdentifier
	ErrNoSequence         = core.ErrNoSequence
	ErrNoRowsAffected     = core.ErrNoRowsAffected
)
