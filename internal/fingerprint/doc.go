// Package fingerprint computes the whitespace-normalized Murmur2 fingerprint
// that the CurseForge lookup service uses to identify archive content.
//
// This package has no instancesync-specific dependencies and could be
// extracted as a standalone library.
//
// The fingerprint ignores tab, newline, carriage return, and space bytes
// wherever they appear: two buffers that differ only in those bytes hash to
// the same value. The remaining bytes are packed into little-endian 32-bit
// words and mixed with the Murmur2 multiplier, seeded with 1 XOR the number
// of non-whitespace bytes.
//
// Primary entry points:
//   - Compute: fingerprint of an in-memory buffer (pure, never fails)
//   - ComputeFile: loads a file fully into memory and fingerprints it
package fingerprint
