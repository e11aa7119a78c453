package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/opsdeck/opsdeck/pkg/appstate"
	"github.com/opsdeck/opsdeck/pkg/bus"
	"github.com/opsdeck/opsdeck/pkg/connect"
	"github.com/opsdeck/opsdeck/pkg/entity"
	"github.com/opsdeck/opsdeck/pkg/flow"
	"github.com/opsdeck/opsdeck/pkg/layout"
	"github.com/opsdeck/opsdeck/pkg/rel"
	"github.com/opsdeck/opsdeck/pkg/stash"
	"github.com/opsdeck/opsdeck/pkg/store"
	"github.com/opsdeck/opsdeck/pkg/transport"
)

// console bundles the opened storage backend with the components every
// command operates through. One console per command invocation.
type console struct {
	cfg     Config
	bus     *bus.Bus
	backend *store.Backend

	repos    *entity.Registry
	links    rel.Store
	sync     *flow.Synchronizer
	engine   *layout.Engine
	workflow *connect.Workflow
	state    *appstate.Service
	router   *transport.Router

	closeStash func() error
}

// openConsole loads the config and opens the database and stash backend.
// The caller must Close the returned console.
func (c *CLI) openConsole(ctx context.Context) (*console, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}

	b := bus.New()
	backend, err := store.Open(cfg.DataDir, b)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	stashStore, closeStash, err := newStashStore(ctx, cfg)
	if err != nil {
		backend.Close()
		b.Close()
		return nil, err
	}

	repos := backend.Registry()
	links := backend.Links()
	state := appstate.New(stashStore)

	return &console{
		cfg:        cfg,
		bus:        b,
		backend:    backend,
		repos:      repos,
		links:      links,
		sync:       flow.NewSynchronizer(repos, links),
		engine:     layout.NewEngine(repos),
		workflow:   connect.New(links),
		state:      state,
		router:     transport.NewRouter(repos, links, backend.BOM(), state, c.Logger),
		closeStash: closeStash,
	}, nil
}

// newStashStore builds the stash backend selected by the config.
func newStashStore(ctx context.Context, cfg Config) (stash.Store, func() error, error) {
	switch cfg.StashBackend {
	case stashBackendMemory:
		return stash.NewMemoryStore(), nil, nil
	case stashBackendRedis:
		s, err := stash.NewRedisStore(ctx, stash.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis stash at %s: %w", cfg.RedisAddr, err)
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown stash backend %q (want %q or %q)",
		cfg.StashBackend, stashBackendMemory, stashBackendRedis)
}

// Close releases the console's resources.
func (con *console) Close() error {
	var errs []error
	if con.closeStash != nil {
		errs = append(errs, con.closeStash())
	}
	errs = append(errs, con.backend.Close())
	con.bus.Close()
	return errors.Join(errs...)
}
