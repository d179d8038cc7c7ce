package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"instancesync/internal/config"
	"instancesync/internal/logging"
	"instancesync/internal/lookupcache"
	"instancesync/internal/services"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// newLogger builds the CLI logger on w, applying the --log-level and
// --log-format overrides.
func (c *commandContext) newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	if format := flagValue(c.logFormatFlag); format != "" && cfg != nil {
		copied := *cfg
		copied.Logging.Format = strings.ToLower(format)
		cfg = &copied
	}
	logger, err := logging.NewFromConfig(cfg, w, flagValue(c.logLevelFlag))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "logger", "", err)
	}
	return logger, nil
}

func (c *commandContext) openLookupCache(cmd *cobra.Command) (*lookupcache.Cache, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	path := ""
	if cfg.LookupCache.Enabled {
		path = cfg.LookupCache.Path
	}
	cache, err := lookupcache.Open(path, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open lookup cache: %w", err)
	}
	return cache, logger, nil
}

func flagValue(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
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
