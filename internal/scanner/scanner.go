// Package scanner discovers archive files under a directory and computes
// their fingerprints.
package scanner

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/blake3"

	"instancesync/internal/fileutil"
	"instancesync/internal/fingerprint"
	"instancesync/internal/logging"
)

const (
	defaultMaxDepth = 1
	defaultWorkers  = 4
)

var defaultExtensions = []string{"jar"}

// ErrTooLarge is returned when an archive exceeds Options.MaxFileBytes.
var ErrTooLarge = errors.New("archive exceeds size limit")

// Options controls a scan.
type Options struct {
	Root string
	// MaxDepth limits how far below Root files are collected. 1 means direct
	// children only.
	MaxDepth     int
	Extensions   []string
	Workers      int
	MaxFileBytes int64
	Logger       *slog.Logger
}

// Archive is one hashed file.
type Archive struct {
	Name string
	Path string
	Size int64
	// NormalizedLength counts the bytes that contribute to Fingerprint.
	NormalizedLength uint32
	Fingerprint      uint32
	Digest           string
}

// Scan walks opts.Root and returns every matching archive, sorted by name.
func Scan(ctx context.Context, opts Options) ([]Archive, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("scan root is required")
	}
	opts = withDefaults(opts)
	logger := logging.NewComponentLogger(opts.Logger, "scanner")

	paths, err := collect(opts, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("archives discovered",
		logging.String("root", opts.Root),
		logging.Int("count", len(paths)),
	)
	if len(paths) == 0 {
		return []Archive{}, nil
	}

	archives, err := hashAll(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	sort.Slice(archives, func(i, j int) bool {
		if archives[i].Name != archives[j].Name {
			return archives[i].Name < archives[j].Name
		}
		return archives[i].Path < archives[j].Path
	})
	return archives, nil
}

func withDefaults(opts Options) Options {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaultExtensions
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return opts
}

func collect(opts Options, logger *slog.Logger) ([]string, error) {
	root := filepath.Clean(opts.Root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.WarnWithContext(logger, "skipping unreadable entry", "scan_entry_unreadable",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check file permissions"),
				logging.String(logging.FieldImpact, "entry left out of the manifest"),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		depth := entryDepth(root, path)
		if d.IsDir() {
			if path != root && depth >= opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if depth > opts.MaxDepth || !fileutil.HasExtension(d.Name(), opts.Extensions) {
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	return paths, nil
}

func entryDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// isRegular accepts regular files and symlinks that resolve to one.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func hashAll(ctx context.Context, paths []string, opts Options) ([]Archive, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := min(opts.Workers, len(paths))
	jobs := make(chan string)
	results := make([]Archive, 0, len(paths))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for path := range jobs {
				archive, err := HashFile(path, opts.MaxFileBytes)
				if err != nil {
					fail(err)
					continue
				}
				mu.Lock()
				results = append(results, archive)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, path := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// HashFile loads a single archive and computes its fingerprint and digest.
// maxBytes <= 0 disables the size limit.
func HashFile(path string, maxBytes int64) (Archive, error) {
	if maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return Archive{}, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() > maxBytes {
			return Archive{}, fmt.Errorf("%s: %d bytes: %w", path, info.Size(), ErrTooLarge)
		}
	}
	buf, err := fingerprint.ReadBuffer(path)
	if err != nil {
		return Archive{}, err
	}
	sum := blake3.Sum256(buf)
	return Archive{
		Name:             filepath.Base(path),
		Path:             path,
		Size:             int64(len(buf)),
		NormalizedLength: fingerprint.NormalizedLength(buf),
		Fingerprint:      fingerprint.Compute(buf),
		Digest:           hex.EncodeToString(sum[:]),
	}, nil
}
