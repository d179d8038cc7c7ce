// Package lookupcache persists fingerprint lookups so repeat runs only ask the
// service about archives it has not seen before.
//
// Entries live in a single SQLite table keyed by fingerprint. A cache opened
// with an empty path is disabled and every operation is a no-op.
package lookupcache
