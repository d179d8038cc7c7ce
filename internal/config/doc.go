// Package config loads, normalizes, and validates instancesync configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CURSEFORGE_API_KEY. The Config type centralizes every knob the CLI needs so
// the scan directory, manifest destination, lookup cache, and CurseForge
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
