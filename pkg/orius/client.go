package orius

import (
	"context"
	"fmt"

	"github.com/rzpsarthak13/orius/internal/catalog"
	"github.com/rzpsarthak13/orius/internal/client"
	"github.com/rzpsarthak13/orius/internal/model"
)

// Client owns a connection pool and the models defined on it.
//
// Typical usage:
//
//	cfg, _ := orius.LoadConfig("orius.yaml")
//	c, _ := orius.NewClient(ctx, cfg)
//	defer c.Close()
//
//	atos, _ := c.Model("T_ATO")
//	rec, _ := atos.Build(map[string]interface{}{"PROTOCOLO": 9999})
//	rec.Save(ctx)
type Client interface {
	// Define binds a schema to the client's connection and returns its model.
	// Defining a table again replaces the previous model.
	Define(ctx context.Context, schema *Schema, opts ...ModelOption) (*Model, error)

	// Model returns the model defined for table, from configuration or Define.
	Model(table string) (*Model, error)

	// Undefine removes the model for table. Records of the removed model
	// fail with ErrNotRegistered.
	Undefine(ctx context.Context, table string) error

	// Models lists the defined tables.
	Models() []string

	// Inspector reads the database catalog.
	Inspector() *Inspector

	// Close undefines every model and closes all connections.
	Close() error
}

// NewClient opens the connections cfg describes and defines its models.
func NewClient(ctx context.Context, cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	impl, err := client.NewClientImpl(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &clientWrapper{impl: impl}, nil
}

type clientWrapper struct {
	impl *client.ClientImpl
}

func (cw *clientWrapper) Define(ctx context.Context, schema *Schema, opts ...ModelOption) (*Model, error) {
	return cw.impl.Define(ctx, schema, opts...)
}

func (cw *clientWrapper) Model(table string) (*Model, error) {
	return cw.impl.Model(table)
}

func (cw *clientWrapper) Undefine(ctx context.Context, table string) error {
	return cw.impl.Undefine(ctx, table)
}

func (cw *clientWrapper) Models() []string {
	return cw.impl.Models()
}

func (cw *clientWrapper) Inspector() *catalog.Inspector {
	return cw.impl.Inspector()
}

func (cw *clientWrapper) Close() error {
	return cw.impl.Close()
}

var _ Client = (*clientWrapper)(nil)

// Model options, for tuning single models.
var (
	WithLocker               = model.WithLocker
	WithLockTTL              = model.WithLockTTL
	WithStrictSequences      = model.WithStrictSequences
	WithPublisher            = model.WithPublisher
	WithHooks                = model.WithHooks
	WithHydrationConcurrency = model.WithHydrationConcurrency
)
