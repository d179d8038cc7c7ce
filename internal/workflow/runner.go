package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"instancesync/internal/curseforge"
	"instancesync/internal/logging"
	"instancesync/internal/lookupcache"
	"instancesync/internal/manifest"
	"instancesync/internal/scanner"
	"instancesync/internal/services"
)

// Runner executes sync runs.
type Runner struct {
	matcher curseforge.Matcher
	cache   *lookupcache.Cache
	opts    Options
	base    *slog.Logger
	logger  *slog.Logger
}

// NewRunner wires a runner. A nil cache disables caching.
func NewRunner(matcher curseforge.Matcher, cache *lookupcache.Cache, opts Options, logger *slog.Logger) *Runner {
	return &Runner{
		matcher: matcher,
		cache:   cache,
		opts:    opts,
		base:    logger,
		logger:  logging.NewComponentLogger(logger, "workflow"),
	}
}

// Run performs one sync.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if r.matcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "run", "matcher unavailable", nil)
	}
	if strings.TrimSpace(req.InputDir) == "" {
		return nil, services.Wrap(services.ErrValidation, "workflow", "run", "input directory is required", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" && !req.DryRun {
		return nil, services.Wrap(services.ErrValidation, "workflow", "run", "output path is required", nil)
	}
	if req.BatchSize <= 0 {
		req.BatchSize = defaultBatchSize
	}

	start := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	result := &Result{RunID: runID, OutputPath: req.OutputPath}

	if !req.DryRun {
		unlock, err := acquireOutputLock(req.OutputPath)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	logger.Info("sync started",
		logging.String(logging.FieldEventType, "sync_start"),
		logging.String("input_dir", req.InputDir),
		logging.String("output_path", req.OutputPath),
		logging.Bool("dry_run", req.DryRun),
	)

	archives, err := r.scan(services.WithOperation(ctx, "scan"), req.InputDir)
	if err != nil {
		return nil, err
	}
	result.Archives = len(archives)

	resolved, misses := r.resolveFromCache(services.WithOperation(ctx, "cache"), archives, result)
	fresh, unmatched, err := r.lookup(services.WithOperation(ctx, "lookup"), misses, req.BatchSize, result)
	if err != nil {
		return nil, err
	}
	resolved = append(resolved, fresh...)
	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Archive.Name != resolved[j].Archive.Name {
			return resolved[i].Archive.Name < resolved[j].Archive.Name
		}
		return resolved[i].Archive.Path < resolved[j].Archive.Path
	})
	result.Resolved = resolved
	result.Unmatched = unmatched

	if len(unmatched) > 0 {
		names := archiveNames(unmatched)
		if req.FailOnUnmatched {
			return result, services.Wrap(services.ErrNotFound, "workflow", "resolve",
				fmt.Sprintf("no exact match for %d archive(s): %s", len(unmatched), strings.Join(names, ", ")), nil)
		}
		logging.WarnWithContext(logger, "archives left out of manifest", "archives_unmatched",
			logging.Int("count", len(unmatched)),
			logging.String("archives", strings.Join(names, ", ")),
			logging.String(logging.FieldErrorHint, "add these files to the instance manually"),
			logging.String(logging.FieldImpact, "manifest is incomplete"),
		)
	}

	entries := make([]manifest.Entry, 0, len(resolved))
	for _, res := range resolved {
		entries = append(entries, manifest.Entry{FileName: res.Archive.Name, DownloadURL: res.DownloadURL})
	}
	result.Manifest = manifest.Build(entries, req.CachedScans)

	if !req.DryRun {
		if err := manifest.Write(req.OutputPath, result.Manifest); err != nil {
			return result, services.Wrap(services.ErrTransient, "workflow", "write manifest", req.OutputPath, err)
		}
		result.Written = true
	}
	result.Duration = time.Since(start)

	logger.Info("sync completed",
		logging.String(logging.FieldEventType, "sync_complete"),
		logging.Int("archives", result.Archives),
		logging.Int("resolved", len(result.Resolved)),
		logging.Int("unmatched", len(result.Unmatched)),
		logging.Int("cache_hits", result.CacheHits),
		logging.Int("requests", result.Requests),
		logging.Bool("written", result.Written),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func acquireOutputLock(outputPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(outputPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "workflow", "lock",
			fmt.Sprintf("another sync is writing %s", outputPath), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (r *Runner) scan(ctx context.Context, inputDir string) ([]scanner.Archive, error) {
	logger := logging.WithContext(ctx, r.logger)
	archives, err := scanner.Scan(ctx, scanner.Options{
		Root:         inputDir,
		MaxDepth:     r.opts.MaxDepth,
		Extensions:   r.opts.Extensions,
		Workers:      r.opts.Workers,
		MaxFileBytes: r.opts.MaxFileBytes,
		Logger:       logging.WithContext(ctx, r.base),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrValidation, "workflow", "scan", inputDir, err)
	}
	logger.Debug("scan complete", logging.Int("archives", len(archives)))
	return archives, nil
}

func archiveNames(archives []scanner.Archive) []string {
	names := make([]string, 0, len(archives))
	for _, archive := range archives {
		names = append(names, archive.Name)
	}
	return names
}
