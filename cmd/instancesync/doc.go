// Command instancesync fingerprints a directory of mod archives, resolves
// each one through the CurseForge fingerprint service and writes an instance
// manifest listing where every archive can be downloaded.
//
// Subcommands:
//
//	sync     scan, resolve and write the manifest
//	hash     print fingerprints for individual files
//	cache    inspect or clear the local lookup cache
//	check    verify directories, the lookup cache and the API key
//	config   create or validate the configuration file
package main
