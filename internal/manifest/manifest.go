package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"instancesync/internal/fileutil"
)

// Instance is the top-level manifest document.
type Instance struct {
	InstalledAddons []Addon `json:"installedAddons"`
	CachedScans     []Scan  `json:"cachedScans"`
}

// Addon records one resolved archive.
type Addon struct {
	InstalledFile AddonFile `json:"installedFile"`
}

// AddonFile ties the archive's on-disk name to its canonical download location.
type AddonFile struct {
	FileNameOnDisk string `json:"fileNameOnDisk"`
	DownloadURL    string `json:"downloadUrl"`
}

// Scan names a folder recorded as already scanned.
type Scan struct {
	FolderName string `json:"folderName"`
}

// Entry is the workflow's view of a resolved archive.
type Entry struct {
	FileName    string
	DownloadURL string
}

// Build assembles an Instance with addons ordered by file name (byte-wise).
// Entries with an empty file name are dropped.
func Build(entries []Entry, cachedScans []string) Instance {
	addons := make([]Addon, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.FileName) == "" {
			continue
		}
		addons = append(addons, Addon{InstalledFile: AddonFile{
			FileNameOnDisk: entry.FileName,
			DownloadURL:    entry.DownloadURL,
		}})
	}
	sort.SliceStable(addons, func(i, j int) bool {
		return addons[i].InstalledFile.FileNameOnDisk < addons[j].InstalledFile.FileNameOnDisk
	})

	scans := make([]Scan, 0, len(cachedScans))
	for _, folder := range cachedScans {
		scans = append(scans, Scan{FolderName: folder})
	}
	return Instance{InstalledAddons: addons, CachedScans: scans}
}

// Encode renders the manifest as two-space indented JSON. File names and URLs
// are written verbatim; '&', '<' and '>' are not HTML-escaped.
func Encode(instance Instance) ([]byte, error) {
	if instance.InstalledAddons == nil {
		instance.InstalledAddons = []Addon{}
	}
	if instance.CachedScans == nil {
		instance.CachedScans = []Scan{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(instance); err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Write encodes instance and replaces path atomically.
func Write(path string, instance Instance) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("manifest path is required")
	}
	data, err := Encode(instance)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read decodes the manifest stored at path.
func Read(path string) (Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Instance{}, fmt.Errorf("read manifest: %w", err)
	}
	var instance Instance
	if err := json.Unmarshal(data, &instance); err != nil {
		return Instance{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return instance, nil
}
