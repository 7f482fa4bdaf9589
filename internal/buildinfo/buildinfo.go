package buildinfo

import (
	"runtime/debug"
)

const unknown = "unknown"

// Revision returns the vcs revision embedded in the binary
func Revision() string {
	if info, available := debug.ReadBuildInfo(); available {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return unknown
}

// ShortRevision returns the first 7 characters of Revision
func ShortRevision() string {
	rev := Revision()
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Version returns the main module version, or override when it is set
func Version(override string) string {
	if override != "" && override != unknown {
		return override
	}
	version := unknown
	if info, available := debug.ReadBuildInfo(); available && info.Main.Version != "" {
		version = info.Main.Version
	}
	return version + "-" + ShortRevision()
}
