package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/internal/config"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/observability"
)

// Options carries the flags shared by every command.
type Options struct {
	// Path is the experiment source: a YAML/JSON/HCL file or a Loam directory.
	Path string
	// LogLevel overrides TRIALSET_LOG_LEVEL when set.
	LogLevel string
	// Store overrides TRIALSET_STORE when set.
	Store  string
	Strict bool
	// Hooks are combined with the logging hooks.
	Hooks []domain.PlanHooks
}

// Session is an engine together with what must be released after use.
type Session struct {
	Engine *trialset.Engine
	Logger *slog.Logger
	Config config.Config

	closer io.Closer
}

// Close releases the plan store.
func (s *Session) Close() error {
	return s.closer.Close()
}

// NewSession builds an engine with standard CLI conventions: settings from the
// environment, flags on top, logs on stderr.
func NewSession(opts Options) (*Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newSession(opts, cfg)
}

func newSession(opts Options, cfg config.Config) (*Session, error) {
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Store != "" {
		cfg.Store = opts.Store
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := createLogger(level)

	store, closer, err := cfg.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("open plan store: %w", err)
	}

	hooks := append([]domain.PlanHooks{observability.LogHooks(logger)}, opts.Hooks...)
	engine, err := trialset.New(opts.Path,
		trialset.WithLogger(logger),
		trialset.WithStore(store),
		trialset.WithStrict(opts.Strict),
		trialset.WithMaxInputSize(cfg.MaxInputSize),
		trialset.WithHooks(observability.Combine(hooks...)),
	)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	return &Session{Engine: engine, Logger: logger, Config: cfg, closer: closer}, nil
}
