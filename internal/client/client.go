package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/rzpsarthak13/orius/internal/catalog"
	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/database"
	"github.com/rzpsarthak13/orius/internal/events"
	"github.com/rzpsarthak13/orius/internal/lock"
	"github.com/rzpsarthak13/orius/internal/model"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// ErrClientClosed is returned by every operation after Close.
var ErrClientClosed = errors.New("client is closed")

// ClientImpl owns the connection facade, the optional locker and event
// publisher, and the models defined on them.
type ClientImpl struct {
	mu        sync.RWMutex
	configMgr *registry.ConfigManager
	facade    *database.SQLFacade
	locker    core.Locker
	publisher core.EventPublisher
	models    *registry.ModelRegistry
	hooks     *registry.HookManager
	closed    bool
}

// NewClientImpl validates config, opens every backend it names and defines
// the models it declares. On failure everything opened so far is closed.
func NewClientImpl(ctx context.Context, config *registry.InternalConfig) (*ClientImpl, error) {
	configMgr := registry.NewConfigManager()
	if err := configMgr.SetConfig(config); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	c := &ClientImpl{
		configMgr: configMgr,
		hooks:     registry.NewHookManager(),
	}

	if err := c.initializeConnections(); err != nil {
		c.closeBackends()
		return nil, fmt.Errorf("failed to initialize connections: %w", err)
	}

	c.models = registry.NewModelRegistry(c.facade, c.hooks, c.modelOptions()...)

	for _, def := range config.Models {
		s, err := def.Build()
		if err != nil {
			c.closeBackends()
			return nil, fmt.Errorf("failed to build model %s: %w", def.Table, err)
		}
		if _, err := c.models.Define(ctx, s); err != nil {
			c.closeBackends()
			return nil, fmt.Errorf("failed to define model %s: %w", s.Table(), err)
		}
	}

	log.Printf("[CLIENT] Ready (driver: %s, lock: %s, events: %s, models: %d)",
		c.facade.Driver(), config.AutoIncrement.LockType, config.Events.Type, c.models.Count())
	return c, nil
}

// initializeConnections opens the database, then the locker and the
// publisher when the configuration asks for them.
func (c *ClientImpl) initializeConnections() error {
	config := c.configMgr.GetConfig()

	facade, err := database.Open(DatabaseConfig(config.Database))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.facade = facade

	if lockType := config.AutoIncrement.LockType; lockType != "" && lockType != registry.LockTypeNone {
		locker, err := lock.Create(lock.ConfigFrom(config.AutoIncrement))
		if err != nil {
			return fmt.Errorf("failed to create locker: %w", err)
		}
		c.locker = locker
	}

	if eventsType := config.Events.Type; eventsType != "" && eventsType != registry.EventsTypeNone {
		publisher, err := events.Create(events.ConfigFrom(config.Events))
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		c.publisher = publisher
	}

	return nil
}

// DatabaseConfig converts the database section of the internal configuration.
func DatabaseConfig(c registry.InternalDatabaseConfig) database.Config {
	return database.Config{
		Driver:            c.Driver,
		Host:              c.Host,
		Port:              c.Port,
		Database:          c.Database,
		Username:          c.Username,
		Password:          c.Password,
		SSLMode:           c.SSLMode,
		Params:            c.Params,
		PoolSize:          c.PoolSize,
		MaxIdleConns:      c.MaxIdleConns,
		ConnMaxLifetime:   c.ConnMaxLifetime,
		ConnMaxIdleTime:   c.ConnMaxIdleTime,
		ConnectionTimeout: c.ConnectionTimeout,
		QueryRate:         c.QueryRate,
		QueryBurst:        c.QueryBurst,
	}
}

// modelOptions are the defaults every defined model receives.
func (c *ClientImpl) modelOptions() []model.Option {
	config := c.configMgr.GetConfig()

	opts := []model.Option{
		model.WithLockTTL(config.AutoIncrement.LockTTL),
		model.WithHydrationConcurrency(config.Database.HydrationConcurrency),
	}
	if c.locker != nil {
		opts = append(opts, model.WithLocker(c.locker))
	}
	if c.publisher != nil {
		opts = append(opts, model.WithPublisher(c.publisher))
	}
	if config.AutoIncrement.StrictSequences {
		opts = append(opts, model.WithStrictSequences())
	}
	return opts
}

func (c *ClientImpl) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// Define binds schema to the client's connection.
func (c *ClientImpl) Define(ctx context.Context, schema *core.Schema, opts ...model.Option) (*model.Model, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return c.models.Define(ctx, schema, opts...)
}

// Model returns the model defined for table.
func (c *ClientImpl) Model(table string) (*model.Model, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return c.models.Get(table)
}

// Undefine removes the model defined for table.
func (c *ClientImpl) Undefine(ctx context.Context, table string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.models.Undefine(ctx, table)
}

// Models lists the defined tables.
func (c *ClientImpl) Models() []string {
	return c.models.List()
}

// Hooks returns the definition hooks of this client.
func (c *ClientImpl) Hooks() *registry.HookManager {
	return c.hooks
}

// Facade returns the connection facade.
func (c *ClientImpl) Facade() core.Facade {
	return c.facade
}

// Inspector returns a catalog inspector on the client's connection.
func (c *ClientImpl) Inspector() *catalog.Inspector {
	return catalog.NewInspector(c.facade)
}

// Config returns the configuration the client was built with.
func (c *ClientImpl) Config() *registry.InternalConfig {
	return c.configMgr.GetConfig()
}

// Close undefines every model and closes the publisher, the locker and the
// database, in that order.
func (c *ClientImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.models != nil {
		if err := c.models.Clear(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear model registry: %w", err))
		}
	}
	if err := c.closeBackends(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *ClientImpl) closeBackends() error {
	var errs []error

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}
	if c.locker != nil {
		if err := c.locker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close locker: %w", err))
		}
	}
	if c.facade != nil {
		if err := c.facade.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
