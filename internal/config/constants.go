// Package config holds process-wide version info and mode flags for blockc.
package config

// Version is the current blockc version.
var Version = "0.1.0"

// FixtureFileExtensions are the recognized IR fixture file extensions
// accepted by cmd/blockc -in.
var FixtureFileExtensions = []string{".blocks.yaml", ".blocks.yml", ".blocks.json"}

// TrimFixtureExt removes any recognized fixture extension from a filename.
// Returns the original string if no extension matches.
func TrimFixtureExt(name string) string {
	for _, ext := range FixtureFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasFixtureExt returns true if the path ends with any recognized fixture extension.
func HasFixtureExt(path string) bool {
	for _, ext := range FixtureFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode indicates the process is running in test mode. cmd/blockc
// sets it; no package in this module reads it, and naming-pool output does
// not depend on it.
var IsTestMode = false

// IsDebugMode mirrors the scratch-vm runtime's `runtime.debug` switch (spec.md §6).
// cmd/blockc sets it alongside compiler.SetDebug; the code generator itself
// reads codegen.Context.Debug, not this flag.
var IsDebugMode = false
