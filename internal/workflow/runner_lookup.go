package workflow

import (
	"context"

	"instancesync/internal/logging"
	"instancesync/internal/lookupcache"
	"instancesync/internal/scanner"
	"instancesync/internal/services"
)

// resolveFromCache splits archives into cache hits and misses. Cache read
// failures count as misses.
func (r *Runner) resolveFromCache(ctx context.Context, archives []scanner.Archive, result *Result) ([]Resolution, []scanner.Archive) {
	if !r.cache.Enabled() {
		return nil, archives
	}
	var (
		resolved []Resolution
		misses   []scanner.Archive
	)
	for _, archive := range archives {
		entry, found, err := r.cache.Lookup(ctx, archive.Fingerprint)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(services.WithArchive(ctx, archive.Name), r.logger),
				"lookup cache read failed", "cache_read_failed",
				logging.Fingerprint(archive.Fingerprint),
				logging.Error(err),
				logging.String(logging.FieldImpact, "archive will be looked up remotely"),
			)
			misses = append(misses, archive)
			continue
		}
		if !found {
			misses = append(misses, archive)
			continue
		}
		resolved = append(resolved, Resolution{
			Archive:     archive,
			ProjectID:   entry.ProjectID,
			FileID:      entry.FileID,
			DownloadURL: entry.DownloadURL,
			FromCache:   true,
		})
		result.CacheHits++
	}
	return resolved, misses
}

// lookup asks the matcher about archives in batches of batchSize unique
// fingerprints. Archives sharing a fingerprint share the match.
func (r *Runner) lookup(ctx context.Context, archives []scanner.Archive, batchSize int, result *Result) ([]Resolution, []scanner.Archive, error) {
	if len(archives) == 0 {
		return nil, nil, nil
	}
	logger := logging.WithContext(ctx, r.logger)

	byFingerprint := make(map[uint32][]scanner.Archive, len(archives))
	order := make([]uint32, 0, len(archives))
	for _, archive := range archives {
		if _, seen := byFingerprint[archive.Fingerprint]; !seen {
			order = append(order, archive.Fingerprint)
		}
		byFingerprint[archive.Fingerprint] = append(byFingerprint[archive.Fingerprint], archive)
	}

	var (
		resolved  []Resolution
		unmatched []scanner.Archive
	)
	for start := 0; start < len(order); start += batchSize {
		end := min(start+batchSize, len(order))
		batch := order[start:end]

		matches, err := r.matcher.MatchFingerprints(ctx, batch)
		result.Requests++
		if err != nil {
			return nil, nil, services.Wrap(services.ErrExternalService, "workflow", "lookup",
				"fingerprint match request failed", err)
		}
		logger.Debug("fingerprint batch resolved",
			logging.Int("batch_size", len(batch)),
			logging.Int("matched", len(matches.Exact)),
		)

		for _, fp := range batch {
			match, ok := matches.Exact[fp]
			if !ok || match.DownloadURL == "" {
				if ok {
					logging.WarnWithContext(logger, "match has no download url", "download_url_withheld",
						logging.Fingerprint(fp),
						logging.String("file_name", match.FileName),
						logging.String(logging.FieldErrorHint, "the author disabled third-party downloads for this file"),
						logging.String(logging.FieldImpact, "archive treated as unmatched"),
					)
				}
				unmatched = append(unmatched, byFingerprint[fp]...)
				continue
			}
			for _, archive := range byFingerprint[fp] {
				resolved = append(resolved, Resolution{
					Archive:     archive,
					ProjectID:   match.ProjectID,
					FileID:      match.FileID,
					DownloadURL: match.DownloadURL,
				})
			}
			r.remember(ctx, byFingerprint[fp][0], match.ProjectID, match.FileID, match.FileName, match.DownloadURL)
		}
	}
	return resolved, unmatched, nil
}

func (r *Runner) remember(ctx context.Context, archive scanner.Archive, projectID, fileID int64, fileName, downloadURL string) {
	if !r.cache.Enabled() {
		return
	}
	err := r.cache.Store(ctx, lookupcache.Entry{
		Fingerprint: archive.Fingerprint,
		ProjectID:   projectID,
		FileID:      fileID,
		FileName:    fileName,
		DownloadURL: downloadURL,
		Digest:      archive.Digest,
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(services.WithArchive(ctx, archive.Name), r.logger),
			"lookup cache write failed", "cache_write_failed",
			logging.Fingerprint(archive.Fingerprint),
			logging.Error(err),
			logging.String(logging.FieldImpact, "archive will be looked up again next run"),
		)
	}
}
