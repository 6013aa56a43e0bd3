// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package version reports build information for the xmlgen binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set at build time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Build describes one build of the binary.
type Build struct {
	Version string
	Commit  string
	Date    string
	Go      string
}

func (b Build) String() string {
	return fmt.Sprintf("xmlgen version %s (commit: %s, built: %s, go: %s)", b.Version, b.Commit, b.Date, b.Go)
}

var (
	once    sync.Once
	current Build
)

// Current returns the build information. Values not injected through ldflags come from
// the module build info when the binary was built with "go install module@version".
func Current() Build {
	once.Do(func() {
		current = resolve(Build{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}, debug.ReadBuildInfo)
	})
	return current
}

func resolve(b Build, read func() (*debug.BuildInfo, bool)) Build {
	info, ok := read()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if b.Commit == "none" && len(setting.Value) >= 7 {
				b.Commit = setting.Value[:7]
			}
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = setting.Value
			}
		}
	}
	return b
}

// Info returns formatted version information.
func Info() string {
	return Current().String()
}

// Short returns just the version string.
func Short() string {
	return Current().Version
}
