// Package version holds build information injected at link time.
package version

// Build information. Populated via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)
