package workflow

import (
	"time"

	"instancesync/internal/manifest"
	"instancesync/internal/scanner"
)

const defaultBatchSize = 1

// Options holds settings shared by every run.
type Options struct {
	Extensions   []string
	MaxDepth     int
	Workers      int
	MaxFileBytes int64
}

// Request describes one sync run.
type Request struct {
	InputDir   string
	OutputPath string
	// BatchSize caps how many fingerprints go into one service request.
	BatchSize       int
	FailOnUnmatched bool
	DryRun          bool
	CachedScans     []string
}

// Resolution is an archive paired with its download location.
type Resolution struct {
	Archive     scanner.Archive
	ProjectID   int64
	FileID      int64
	DownloadURL string
	FromCache   bool
}

// Result summarises a completed run.
type Result struct {
	RunID      string
	Archives   int
	Resolved   []Resolution
	Unmatched  []scanner.Archive
	CacheHits  int
	Requests   int
	OutputPath string
	Written    bool
	Manifest   manifest.Instance
	Duration   time.Duration
}
