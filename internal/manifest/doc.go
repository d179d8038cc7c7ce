// Package manifest models the instance manifest consumed by launchers and
// writes it to disk.
//
// The JSON field names (installedAddons, installedFile, fileNameOnDisk,
// downloadUrl, cachedScans, folderName) are fixed by the consumers of the
// file and must not change.
package manifest
