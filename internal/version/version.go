package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/neptotech/betteradvancedpaste/internal/version.Version=0.3.0"
var Version = "0.0.0-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

// IsDevBuild reports whether v is a prerelease or not a valid semantic version.
func IsDevBuild(v string) bool {
	canonical := "v" + strings.TrimPrefix(v, "v")
	return !semver.IsValid(canonical) || semver.Prerelease(canonical) != ""
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > -1
}

// String returns the version string with the short commit hash when known.
func String() string {
	v := Version
	if GitCommit != "" && GitCommit != "unknown" {
		v = fmt.Sprintf("%s-%s", v, shortCommit())
	}
	return v
}

// StringFull returns the complete version information including build metadata.
func StringFull() string {
	parts := []string{fmt.Sprintf("Version=%s", Version)}
	if GitCommit != "" && GitCommit != "unknown" {
		parts = append(parts, fmt.Sprintf("Commit=%s", shortCommit()))
	}
	if BuildTime != "" && BuildTime != "unknown" {
		parts = append(parts, fmt.Sprintf("BuildTime=%s", BuildTime))
	}
	if IsDevBuild(Version) {
		parts = append(parts, "Channel=dev")
	}
	return strings.Join(parts, " ")
}

func shortCommit() string {
	if len(GitCommit) > 8 {
		return GitCommit[:8]
	}
	return GitCommit
}
