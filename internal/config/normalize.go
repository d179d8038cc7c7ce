package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCurseForge()
	c.normalizeScan()
	if err := c.normalizeLookupCache(); err != nil {
		return err
	}
	c.normalizeManifest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputPath) == "" {
		c.Paths.OutputPath = defaultOutputPath
	}
	if c.Paths.OutputPath, err = expandPath(c.Paths.OutputPath); err != nil {
		return fmt.Errorf("paths.output_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCurseForge() {
	c.CurseForge.APIKey = strings.TrimSpace(c.CurseForge.APIKey)
	if c.CurseForge.APIKey == "" {
		if value, ok := os.LookupEnv("CURSEFORGE_API_KEY"); ok {
			c.CurseForge.APIKey = strings.TrimSpace(value)
		}
	}
	c.CurseForge.BaseURL = strings.TrimRight(strings.TrimSpace(c.CurseForge.BaseURL), "/")
	if c.CurseForge.BaseURL == "" {
		c.CurseForge.BaseURL = defaultCurseForgeBaseURL
	}
	c.CurseForge.FingerprintPath = strings.TrimSpace(c.CurseForge.FingerprintPath)
	if c.CurseForge.FingerprintPath == "" {
		c.CurseForge.FingerprintPath = defaultFingerprintPath
	}
	if !strings.HasPrefix(c.CurseForge.FingerprintPath, "/") {
		c.CurseForge.FingerprintPath = "/" + c.CurseForge.FingerprintPath
	}
	c.CurseForge.UserAgent = strings.TrimSpace(c.CurseForge.UserAgent)
	if c.CurseForge.UserAgent == "" {
		c.CurseForge.UserAgent = defaultUserAgent
	}
	if c.CurseForge.TimeoutSeconds <= 0 {
		c.CurseForge.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.CurseForge.BatchSize <= 0 {
		c.CurseForge.BatchSize = defaultBatchSize
	}
}

func (c *Config) normalizeScan() {
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{defaultScanExtension}
	}
	c.Scan.Extensions = exts
	if c.Scan.MaxDepth == 0 {
		c.Scan.MaxDepth = defaultScanMaxDepth
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultScanWorkers
	}
	if c.Scan.MaxFileMiB < 0 {
		c.Scan.MaxFileMiB = 0
	}
}

func (c *Config) normalizeLookupCache() error {
	var err error
	if strings.TrimSpace(c.LookupCache.Path) == "" {
		c.LookupCache.Path = defaultLookupCachePath()
	}
	if c.LookupCache.Path, err = expandPath(c.LookupCache.Path); err != nil {
		return fmt.Errorf("lookup_cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeManifest() {
	scans := make([]string, 0, len(c.Manifest.CachedScans))
	for _, folder := range c.Manifest.CachedScans {
		if folder = strings.TrimSpace(folder); folder != "" {
			scans = append(scans, folder)
		}
	}
	c.Manifest.CachedScans = scans
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
