package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"docingest/internal/config"
	"docingest/internal/logging"
	"docingest/internal/registry"
	"docingest/internal/store"
)

type commandContext struct {
	configFlag *string
	logFormat  *string
	verbose    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logFormat *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logFormat:  logFormat,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logFormat != nil && strings.TrimSpace(*c.logFormat) != "" {
			cfg.Logging.Format = strings.ToLower(strings.TrimSpace(*c.logFormat))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
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
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withRegistry loads the configured employee snapshot.
func (c *commandContext) withRegistry(ctx context.Context, fn func(*registry.Registry) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if cfg.Registry.Source == config.RegistrySourceJSON {
		reg, err := registry.Load(ctx, registry.JSONSource{Path: cfg.Registry.JSONPath})
		if err != nil {
			return err
		}
		return fn(reg)
	}
	return c.withStore(func(st *store.Store) error {
		reg, err := registry.Load(ctx, st)
		if err != nil {
			return err
		}
		return fn(reg)
	})
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
