// Package workflow runs a sync: it scans the archive directory, resolves each
// fingerprint through the lookup cache and the matching service, and writes
// the instance manifest.
//
// Steps run in a fixed order (scan, cache, lookup, manifest). Only the scan
// step is concurrent. A run holds an exclusive lock next to the output file so
// two runs cannot write the same manifest.
package workflow
