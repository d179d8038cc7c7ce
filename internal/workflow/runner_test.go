package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"instancesync/internal/curseforge"
	"instancesync/internal/fingerprint"
	"instancesync/internal/logging"
	"instancesync/internal/lookupcache"
	"instancesync/internal/manifest"
	"instancesync/internal/services"
	"instancesync/internal/workflow"
)

type fakeMatcher struct {
	mu      sync.Mutex
	matches map[uint32]curseforge.Match
	batches [][]uint32
	err     error
}

func (f *fakeMatcher) MatchFingerprints(_ context.Context, fps []uint32) (*curseforge.MatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]uint32(nil), fps...))
	if f.err != nil {
		return nil, f.err
	}
	result := &curseforge.MatchResult{Exact: map[uint32]curseforge.Match{}}
	for _, fp := range fps {
		if match, ok := f.matches[fp]; ok {
			result.Exact[fp] = match
			continue
		}
		result.Unmatched = append(result.Unmatched, fp)
	}
	return result, nil
}

func writeArchive(t *testing.T, dir, name, content string) uint32 {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return fingerprint.Compute([]byte(content))
}

func matchFor(fp uint32, name string) curseforge.Match {
	return curseforge.Match{
		Fingerprint: fp,
		ProjectID:   100,
		FileID:      200,
		FileName:    name,
		DownloadURL: "https://edge.forgecdn.net/" + name,
	}
}

func TestRunWritesSortedManifest(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "instance", "minecraftinstance.json")
	zeta := writeArchive(t, input, "zeta.jar", "zeta")
	alpha := writeArchive(t, input, "alpha.jar", "alpha")

	matcher := &fakeMatcher{matches: map[uint32]curseforge.Match{
		zeta:  matchFor(zeta, "zeta.jar"),
		alpha: matchFor(alpha, "alpha.jar"),
	}}
	runner := workflow.NewRunner(matcher, nil, workflow.Options{}, logging.NewNop())

	result, err := runner.Run(context.Background(), workflow.Request{
		InputDir:        input,
		OutputPath:      output,
		FailOnUnmatched: true,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Written || result.RunID == "" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(matcher.batches) != 2 {
		t.Fatalf("default batch size should send one request per archive, got %d", len(matcher.batches))
	}

	written, err := manifest.Read(output)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(written.InstalledAddons) != 2 {
		t.Fatalf("expected 2 addons, got %+v", written)
	}
	if written.InstalledAddons[0].InstalledFile.FileNameOnDisk != "alpha.jar" ||
		written.InstalledAddons[0].InstalledFile.DownloadURL != "https://edge.forgecdn.net/alpha.jar" {
		t.Fatalf("unexpected first addon %+v", written.InstalledAddons[0])
	}
	if _, err := os.Stat(output + ".lock"); err != nil {
		t.Fatalf("expected lock file: %v", err)
	}
}

func TestRunBatchesUniqueFingerprints(t *testing.T) {
	input := t.TempDir()
	a := writeArchive(t, input, "a.jar", "aaaa")
	writeArchive(t, input, "a-copy.jar", "a a a a")
	b := writeArchive(t, input, "b.jar", "bbbb")
	c := writeArchive(t, input, "c.jar", "cccc")

	matcher := &fakeMatcher{matches: map[uint32]curseforge.Match{
		a: matchFor(a, "a.jar"),
		b: matchFor(b, "b.jar"),
		c: matchFor(c, "c.jar"),
	}}
	runner := workflow.NewRunner(matcher, nil, workflow.Options{}, nil)

	result, err := runner.Run(context.Background(), workflow.Request{
		InputDir:  input,
		BatchSize: 2,
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(matcher.batches) != 2 || len(matcher.batches[0]) != 2 || len(matcher.batches[1]) != 1 {
		t.Fatalf("unexpected batches %v", matcher.batches)
	}
	if len(result.Resolved) != 4 {
		t.Fatalf("expected all 4 archives resolved, got %d", len(result.Resolved))
	}
	if result.Written {
		t.Fatal("dry run must not write")
	}
	if len(result.Manifest.InstalledAddons) != 4 {
		t.Fatalf("expected manifest preview with 4 addons, got %d", len(result.Manifest.InstalledAddons))
	}
}

func TestRunFailsOnUnmatched(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "out.json")
	known := writeArchive(t, input, "known.jar", "known")
	writeArchive(t, input, "mystery.jar", "mystery")

	matcher := &fakeMatcher{matches: map[uint32]curseforge.Match{known: matchFor(known, "known.jar")}}
	runner := workflow.NewRunner(matcher, nil, workflow.Options{}, nil)

	result, err := runner.Run(context.Background(), workflow.Request{
		InputDir:        input,
		OutputPath:      output,
		BatchSize:       10,
		FailOnUnmatched: true,
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if services.ExitCode(err) != services.ExitUnresolved {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
	if result == nil || len(result.Unmatched) != 1 || result.Unmatched[0].Name != "mystery.jar" {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, statErr := os.Stat(output); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("manifest should not be written, stat err=%v", statErr)
	}
}

func TestRunSkipsUnmatchedWhenAllowed(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "out.json")
	known := writeArchive(t, input, "known.jar", "known")
	withheld := writeArchive(t, input, "withheld.jar", "withheld")
	writeArchive(t, input, "mystery.jar", "mystery")

	matcher := &fakeMatcher{matches: map[uint32]curseforge.Match{
		known:    matchFor(known, "known.jar"),
		withheld: {Fingerprint: withheld, FileName: "withheld.jar"},
	}}
	runner := workflow.NewRunner(matcher, nil, workflow.Options{}, nil)

	result, err := runner.Run(context.Background(), workflow.Request{
		InputDir:   input,
		OutputPath: output,
		BatchSize:  50,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Unmatched) != 2 {
		t.Fatalf("expected 2 unmatched, got %+v", result.Unmatched)
	}
	written, err := manifest.Read(output)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(written.InstalledAddons) != 1 || written.InstalledAddons[0].InstalledFile.FileNameOnDisk != "known.jar" {
		t.Fatalf("unexpected manifest %+v", written)
	}
}

func TestRunUsesLookupCache(t *testing.T) {
	ctx := context.Background()
	input := t.TempDir()
	fp := writeArchive(t, input, "cached.jar", "cached")

	cache, err := lookupcache.Open(filepath.Join(t.TempDir(), "lookup.db"), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	matcher := &fakeMatcher{matches: map[uint32]curseforge.Match{fp: matchFor(fp, "cached.jar")}}
	runner := workflow.NewRunner(matcher, cache, workflow.Options{}, nil)
	req := workflow.Request{InputDir: input, DryRun: true, FailOnUnmatched: true}

	first, err := runner.Run(ctx, req)
	if err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
	if first.CacheHits != 0 || first.Requests != 1 {
		t.Fatalf("unexpected first run %+v", first)
	}
	entry, found, err := cache.Lookup(ctx, fp)
	if err != nil || !found {
		t.Fatalf("expected cached entry, found=%v err=%v", found, err)
	}
	if entry.Digest == "" {
		t.Fatal("expected digest to be cached")
	}

	second, err := runner.Run(ctx, req)
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if second.CacheHits != 1 || second.Requests != 0 {
		t.Fatalf("expected cache hit without requests, got %+v", second)
	}
	if !second.Resolved[0].FromCache {
		t.Fatal("expected resolution from cache")
	}
	if len(matcher.batches) != 1 {
		t.Fatalf("matcher should be called once, got %d", len(matcher.batches))
	}
}

func TestRunWrapsMatcherError(t *testing.T) {
	input := t.TempDir()
	writeArchive(t, input, "a.jar", "a")

	runner := workflow.NewRunner(&fakeMatcher{err: errors.New("boom")}, nil, workflow.Options{}, nil)
	_, err := runner.Run(context.Background(), workflow.Request{InputDir: input, DryRun: true})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestRunRejectsConcurrentWriter(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "out.json")
	writeArchive(t, input, "a.jar", "a")

	held := flock.New(output + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("failed to take lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	runner := workflow.NewRunner(&fakeMatcher{}, nil, workflow.Options{}, nil)
	if _, err := runner.Run(context.Background(), workflow.Request{InputDir: input, OutputPath: output}); err == nil {
		t.Fatal("expected lock contention error")
	}
}

func TestRunValidatesRequest(t *testing.T) {
	runner := workflow.NewRunner(&fakeMatcher{}, nil, workflow.Options{}, nil)
	if _, err := runner.Run(context.Background(), workflow.Request{OutputPath: "x.json"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing input, got %v", err)
	}
	if _, err := runner.Run(context.Background(), workflow.Request{InputDir: t.TempDir()}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing output, got %v", err)
	}
	missing := workflow.NewRunner(nil, nil, workflow.Options{}, nil)
	if _, err := missing.Run(context.Background(), workflow.Request{InputDir: "x", DryRun: true}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunMissingInputDirectory(t *testing.T) {
	runner := workflow.NewRunner(&fakeMatcher{}, nil, workflow.Options{}, nil)
	_, err := runner.Run(context.Background(), workflow.Request{
		InputDir: filepath.Join(t.TempDir(), "missing"),
		DryRun:   true,
	})
	if err == nil {
		t.Fatal("expected error for missing input directory")
	}
}
