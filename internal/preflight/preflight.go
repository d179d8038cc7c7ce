package preflight

import (
	"context"
	"path/filepath"

	"instancesync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// The lookup cache check only runs when the cache is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir, AccessRead),
		CheckDirectoryAccess("Output directory", filepath.Dir(cfg.Paths.OutputPath), AccessWrite),
	}
	if cfg.LookupCache.Enabled {
		results = append(results, CheckLookupCache(ctx, cfg.LookupCache.Path))
	}
	results = append(results, CheckLookupService(ctx, cfg))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
