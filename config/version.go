package config

import "fmt"

// Populated at build time via ldflags.
var (
	Version       = "dev"
	CommitHash    = "unknown"
	BuildTime     = "unknown"
	VersionString = fmt.Sprintf("%s-%s (%s)", Version, CommitHash, BuildTime)
)
