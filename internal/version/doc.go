// Package version exposes build metadata for panel-stopwatch.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// When they are not, Get falls back to the VCS stamp in the binary.
package version
