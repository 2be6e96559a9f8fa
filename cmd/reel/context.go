package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reel/internal/catalog"
	"reel/internal/config"
	"reel/internal/footage"
	"reel/internal/logging"
	"reel/internal/media"
	"reel/internal/metrics"
	"reel/internal/organizer"
	"reel/internal/preview"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

// application holds the services a command works with. It is built per
// command so that config-only commands never open the catalog.
type application struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *catalog.Store
	metrics   *metrics.Metrics
	previews  *preview.Store
	manager   *footage.Manager
	organizer *organizer.Organizer
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) openApp() (*application, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	m, err := metrics.New()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	previews := preview.NewStore(cfg.PreviewDir())
	prober := media.NewProber(cfg, logger)
	generator := preview.NewGenerator(cfg, previews, logger)
	manager := footage.NewManager(cfg, store, prober, generator, previews, logger, footage.WithMetrics(m))
	org := organizer.New(store, cfg.FootageRoot(), logger,
		organizer.WithItemLocker(manager),
		organizer.WithMetrics(m),
	)
	return &application{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		metrics:   m,
		previews:  previews,
		manager:   manager,
		organizer: org,
	}, nil
}

func (c *commandContext) withApp(fn func(*application) error) error {
	app, err := c.openApp()
	if err != nil {
		return err
	}
	defer app.store.Close()
	return fn(app)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
