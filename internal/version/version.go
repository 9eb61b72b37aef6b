// Package version holds build metadata injected at link time via
// -ldflags "-X github.com/ln6000/lidar-unity/internal/version.Version=...".
package version

var (
	// Version is the release version of the simulator.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
