// Package misc provides build identification shared by all binaries.
package misc

import (
	"runtime/debug"
	"strings"
)

// Set at build time via -ldflags "-X stylec/misc.appName=... -X stylec/misc.appVersion=...".
var (
	appName    = "stylec"
	appVersion = ""
	gitHash    = ""
)

// GetAppName returns the short program name used for file prefixes and logger names.
func GetAppName() string {
	return appName
}

// GetVersion returns the release version, falling back to module build info
// for "go install" builds.
func GetVersion() string {
	if len(appVersion) > 0 {
		return appVersion
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "development"
}

// GetGitHash returns the VCS revision recorded in build info unless overridden
// at build time.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		var rev, modified string
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				if s.Value == "true" {
					modified = "-dirty"
				}
			}
		}
		if len(rev) > 0 {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			return rev + modified
		}
	}
	return "unknown"
}

// IsDevelopment reports whether the binary was built without a stamped version.
func IsDevelopment() bool {
	return strings.EqualFold(GetVersion(), "development")
}
