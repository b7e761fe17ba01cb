// Package version holds the vmcp version stamped into generated files and
// printed by the CLI.
package version

// Overridden at build time:
// go build -ldflags "-X vmcp/internal/version.Version=1.2.0 -X vmcp/internal/version.Commit=abc123"
var (
	// Version is the semantic version of vmcp
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "vmcp version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

// Generator is the tool name written into generated file banners. It omits
// the commit and build date so that rebuilds produce identical files.
func Generator() string {
	return "vmcp " + Version
}
