package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/permagit/permagit/pkg/config"
	"github.com/permagit/permagit/pkg/event"
	"github.com/permagit/permagit/pkg/merge"
	"github.com/permagit/permagit/pkg/object"
	"github.com/permagit/permagit/pkg/quota"
	"github.com/permagit/permagit/pkg/repo"
	"github.com/permagit/permagit/pkg/state"
)

var (
	configPath string
	actAs      string
)

// app bundles the loaded config, the backing store, and the engines for
// one CLI invocation. Mutating commands call save before close.
type app struct {
	cfg    config.Config
	store  state.Store
	engine *repo.Engine
	merger *merge.Engine
	redis  *event.RedisSink
	logger zerolog.Logger
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	sinks := event.MultiSink{event.NewLogSink(logger)}
	var redis *event.RedisSink
	if cfg.Redis.Addr != "" {
		redis, err = event.NewRedisSink(event.RedisConfig{Addr: cfg.Redis.Addr, Stream: cfg.Redis.Stream})
		if err != nil {
			return nil, fmt.Errorf("connect event stream: %w", err)
		}
		sinks = append(sinks, redis)
	}

	store, err := state.NewBoltStore(cfg.StatePath())
	if err != nil {
		return nil, err
	}

	engine, err := repo.Load(store,
		repo.WithSink(sinks),
		repo.WithPricing(quota.Pricing{UnitBytes: cfg.Quota.UnitBytes, UnitPrice: cfg.Quota.UnitPrice}),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		store:  store,
		engine: engine,
		merger: merge.NewEngine(engine),
		redis:  redis,
		logger: logger,
	}, nil
}

// identity resolves the acting identity: the --as flag, then the config,
// then $USER.
func (a *app) identity() (object.Identity, error) {
	if actAs != "" {
		return object.Identity(actAs), nil
	}
	if a.cfg.Identity != "" {
		return object.Identity(a.cfg.Identity), nil
	}
	if user := os.Getenv("USER"); user != "" {
		return object.Identity(user), nil
	}
	return "", fmt.Errorf("no identity configured (use --as or set identity in the config)")
}

func (a *app) save() error {
	return a.engine.Save(a.store)
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.store.Close()
}

func shortID(id object.ObjectID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
