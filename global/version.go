package global

import (
	"fmt"
	"runtime/debug"
)

const (
	// Version has the following structure: vA.B.C[-<label>]
	// A is major version. B changes with breaking changes of the wire format. C is non-breaking change
	Version        = "v0.2.1"
	bannerTemplate = "cabi version %s, commit hash: %s, commit time: %s"
)

var (
	CommitHash = "N/A"
	CommitTime = "N/A"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				CommitHash = setting.Value
			}
			if setting.Key == "vcs.time" {
				CommitTime = setting.Value
			}
		}
	}
}

func BannerString() string {
	return fmt.Sprintf(bannerTemplate, Version, CommitHash, CommitTime)
}
