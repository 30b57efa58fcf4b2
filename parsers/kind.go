// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package parsers

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a report format.
type Kind int

const (
	Dashboard Kind = iota
	Groups
	Hierarchy
	ModuleList
	Assert
)

// Kinds lists every report format in a stable order.
var Kinds = []Kind{Dashboard, Groups, Hierarchy, ModuleList, Assert}

func (k Kind) String() string {
	switch k {
	case Dashboard:
		return "dashboard"
	case Groups:
		return "groups"
	case Hierarchy:
		return "hierarchy"
	case ModuleList:
		return "modlist"
	case Assert:
		return "asserts"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names returned by String plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dashboard":
		return Dashboard, nil
	case "groups", "group":
		return Groups, nil
	case "hierarchy":
		return Hierarchy, nil
	case "modlist", "modulelist", "modules", "module":
		return ModuleList, nil
	case "asserts", "assert", "assertions":
		return Assert, nil
	}
	return 0, fmt.Errorf("%q: unknown report kind", s)
}

// Stats describes one call to Parse.
type Stats struct {
	Duration       time.Duration
	FileSize       int64
	LinesProcessed int
	LinesSkipped   int
	Records        int
	BytesAllocated int64
	Threads        int
	ThroughputMBps float64
}

func (s *Stats) finish(started time.Time) {
	s.Duration = time.Since(started)
	if secs := s.Duration.Seconds(); secs > 0 {
		s.ThroughputMBps = float64(s.FileSize) / (1024 * 1024) / secs
	}
}
