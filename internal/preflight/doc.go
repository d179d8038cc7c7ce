// Package preflight provides readiness checks for the paths and services a
// sync depends on.
//
// The CLI "instancesync check" command runs RunAll and prints each result.
// The lookup service check sends a single fingerprint so it also proves the
// API key is accepted.
package preflight
