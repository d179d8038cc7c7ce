package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	OutputPath string `toml:"output_path"`
	LogDir     string `toml:"log_dir"`
}

// CurseForge contains configuration for the fingerprint lookup service.
type CurseForge struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	FingerprintPath string `toml:"fingerprint_path"`
	GameID          int    `toml:"game_id"`
	UserAgent       string `toml:"user_agent"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	BatchSize       int    `toml:"batch_size"`
}

// Scan controls which archives are picked up from the input directory.
type Scan struct {
	Extensions []string `toml:"extensions"`
	MaxDepth   int      `toml:"max_depth"`
	Workers    int      `toml:"workers"`
	MaxFileMiB int      `toml:"max_file_mib"`
}

// LookupCache contains configuration for the fingerprint to download URL cache.
type LookupCache struct {
	Enabled bool   `toml:"enabled"` // Default: true
	Path    string `toml:"path"`    // Default: ~/.cache/instancesync/lookup.db
}

// Manifest controls manifest assembly.
type Manifest struct {
	FailOnUnmatched bool     `toml:"fail_on_unmatched"`
	CachedScans     []string `toml:"cached_scans"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for instancesync.
//
// Configuration sections by subsystem:
//   - Paths: scan directory, manifest destination, and log directory
//   - CurseForge: lookup service credentials and request shaping
//   - Scan: archive selection and hashing parallelism
//   - LookupCache: fingerprint cache location
//   - Manifest: unmatched-archive policy and cached scan folders
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	CurseForge  CurseForge  `toml:"curseforge"`
	Scan        Scan        `toml:"scan"`
	LookupCache LookupCache `toml:"lookup_cache"`
	Manifest    Manifest    `toml:"manifest"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("instancesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a sync run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.OutputPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.OutputPath))
	}
	if c.LookupCache.Enabled && strings.TrimSpace(c.LookupCache.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.LookupCache.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout for the lookup service.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.CurseForge.TimeoutSeconds) * time.Second
}

// MaxFileBytes returns the largest archive the scanner will load, or 0 for no limit.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Scan.MaxFileMiB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultLookupCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "instancesync", "lookup.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/instancesync/lookup.db"
	}
	return filepath.Join(home, ".cache", "instancesync", "lookup.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
