// Package buildconfig exposes build metadata injected at link time via
// -ldflags "-X .../buildconfig.version=... -X .../buildconfig.commit=...".
package buildconfig

var (
	version = "dev"
	commit  = "unknown"
)

func Version() string { return version }

func Commit() string { return commit }
