// Package version exposes the build version of rosterfeed.
package version

// version is set at build time via -ldflags.
var version = "dev" //nolint:gochecknoglobals // Overridden by the linker

// GetVersion returns the build version string.
func GetVersion() string {
	return version
}
