package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MaxBatchSize is the largest accepted curseforge.batch_size.
const MaxBatchSize = maxCurseForgeBatchSize

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCurseForge(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateLookupCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireAPIKey reports a descriptive error when no CurseForge API key is
// configured. Commands that never contact the service skip this check.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.CurseForge.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("curseforge.api_key is required. Set CURSEFORGE_API_KEY env var or edit %s (create with 'instancesync config init')", defaultPath)
}

func (c *Config) validateCurseForge() error {
	parsed, err := url.Parse(c.CurseForge.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("curseforge.base_url must be an absolute URL, got %q", c.CurseForge.BaseURL)
	}
	if c.CurseForge.GameID <= 0 {
		return errors.New("curseforge.game_id must be positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"curseforge.timeout_seconds": c.CurseForge.TimeoutSeconds,
		"curseforge.batch_size":      c.CurseForge.BatchSize,
	}); err != nil {
		return err
	}
	if c.CurseForge.BatchSize > maxCurseForgeBatchSize {
		return fmt.Errorf("curseforge.batch_size must be at most %d", maxCurseForgeBatchSize)
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.MaxDepth < 0 {
		return errors.New("scan.max_depth must be positive")
	}
	for _, ext := range c.Scan.Extensions {
		if strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("scan.extensions contains invalid entry %q", ext)
		}
	}
	return nil
}

func (c *Config) validateLookupCache() error {
	if c.LookupCache.Enabled && strings.TrimSpace(c.LookupCache.Path) == "" {
		return errors.New("lookup_cache.path must be set when lookup_cache.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
