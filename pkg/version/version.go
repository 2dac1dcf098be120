// Package version holds build-time version information.
package version

var (
	// Version is the battpipe version, set at build time with -ldflags.
	Version = "dev"
	// GitCommit is the git commit battpipe was built from.
	GitCommit = "unknown"
)
