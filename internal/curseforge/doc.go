// Package curseforge resolves archive fingerprints against the CurseForge
// fingerprint matching endpoint.
//
// Only exact matches are surfaced. The API key is supplied by the caller
// (configuration or the CURSEFORGE_API_KEY environment variable).
package curseforge
