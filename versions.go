// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package covrpt parses functional coverage reports into a database that
// can be queried, scored and exported. The work is done by the parsers,
// model and export packages; this package carries the release version.
package covrpt

import (
	"fmt"

	"github.com/maloquacious/semver"
)

// version is bumped when a report grammar, export shape or snapshot
// layout changes.
var version = semver.Version{
	Major: 0,
	Minor: 1,
	Patch: 0,
	Build: semver.Commit(),
}

func Version() semver.Version {
	return version
}

// Banner is the identification line printed by the command line tool.
func Banner() string {
	return fmt.Sprintf("covrpt %s", version.Core())
}
