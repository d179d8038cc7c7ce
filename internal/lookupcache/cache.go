package lookupcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"instancesync/internal/logging"
)

// Entry is a cached fingerprint resolution.
type Entry struct {
	Fingerprint uint32    `json:"fingerprint"`
	ProjectID   int64     `json:"project_id"`
	FileID      int64     `json:"file_id"`
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	Digest      string    `json:"digest,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
}

const entryColumns = "fingerprint, project_id, file_id, file_name, download_url, digest, cached_at"

// Lookup returns the entry for fp if present.
func (c *Cache) Lookup(ctx context.Context, fp uint32) (Entry, bool, error) {
	if !c.Enabled() {
		return Entry{}, false, nil
	}
	row := c.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+entryColumns+" FROM lookups WHERE fingerprint = ?", int64(fp))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup fingerprint %d: %w", fp, err)
	}
	return entry, true, nil
}

// Store inserts or replaces entry. A zero CachedAt is set to now.
func (c *Cache) Store(ctx context.Context, entry Entry) error {
	if entry.DownloadURL == "" {
		return errors.New("download url cannot be empty")
	}
	if !c.Enabled() {
		return nil
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	_, err := c.execWithRetry(ctx,
		`INSERT INTO lookups (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			project_id = excluded.project_id,
			file_id = excluded.file_id,
			file_name = excluded.file_name,
			download_url = excluded.download_url,
			digest = excluded.digest,
			cached_at = excluded.cached_at`,
		int64(entry.Fingerprint),
		entry.ProjectID,
		entry.FileID,
		entry.FileName,
		entry.DownloadURL,
		entry.Digest,
		entry.CachedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store fingerprint %d: %w", entry.Fingerprint, err)
	}
	c.logger.Debug("cached fingerprint lookup",
		logging.Fingerprint(entry.Fingerprint),
		logging.String("file_name", entry.FileName),
		logging.Int64("project_id", entry.ProjectID),
	)
	return nil
}

// Remove deletes the entry for fp.
func (c *Cache) Remove(ctx context.Context, fp uint32) error {
	if !c.Enabled() {
		return nil
	}
	res, err := c.execWithRetry(ctx, "DELETE FROM lookups WHERE fingerprint = ?", int64(fp))
	if err != nil {
		return fmt.Errorf("remove fingerprint %d: %w", fp, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("fingerprint %d: %w", fp, ErrNotFound)
	}
	c.logger.Debug("removed fingerprint from cache", logging.Fingerprint(fp))
	return nil
}

// RemoveByNumber deletes the entry at the 1-based position reported by List.
func (c *Cache) RemoveByNumber(ctx context.Context, number int) (Entry, error) {
	if number < 1 {
		return Entry{}, fmt.Errorf("invalid entry number %d", number)
	}
	entries, err := c.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	if number > len(entries) {
		return Entry{}, fmt.Errorf("entry %d: %w (cache has %d entries)", number, ErrNotFound, len(entries))
	}
	entry := entries[number-1]
	if err := c.Remove(ctx, entry.Fingerprint); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns all entries, newest first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	if !c.Enabled() {
		return nil, nil
	}
	rows, err := c.db.QueryContext(ensureContext(ctx),
		"SELECT "+entryColumns+" FROM lookups ORDER BY cached_at DESC, fingerprint ASC")
	if err != nil {
		return nil, fmt.Errorf("list lookups: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookups: %w", err)
	}
	return entries, nil
}

// Clear removes every entry and returns how many were deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	res, err := c.execWithRetry(ctx, "DELETE FROM lookups")
	if err != nil {
		return 0, fmt.Errorf("clear lookups: %w", err)
	}
	removed, _ := res.RowsAffected()
	c.logger.Debug("cleared lookup cache", logging.Int64("removed", removed))
	return removed, nil
}

// Count returns the number of cached entries.
func (c *Cache) Count(ctx context.Context) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}
	var count int
	if err := c.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(*) FROM lookups").Scan(&count); err != nil {
		return 0, fmt.Errorf("count lookups: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry    Entry
		fp       int64
		cachedAt int64
	)
	if err := row.Scan(
		&fp,
		&entry.ProjectID,
		&entry.FileID,
		&entry.FileName,
		&entry.DownloadURL,
		&entry.Digest,
		&cachedAt,
	); err != nil {
		return Entry{}, err
	}
	entry.Fingerprint = uint32(fp)
	entry.CachedAt = time.Unix(0, cachedAt).UTC()
	return entry, nil
}
