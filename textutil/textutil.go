// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package textutil holds the string and number helpers shared by the report parsers.
// Every function is pure and safe for concurrent use.
package textutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// cutset is the set of bytes that Trim removes.
const cutset = " \t\r\n"

var (
	// ErrEmpty is returned by ParsePercentage for blank input.
	ErrEmpty = errors.New("empty input")

	rxNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Trim strips leading and trailing spaces, tabs, carriage returns and new-lines.
func Trim(s string) string {
	return strings.Trim(s, cutset)
}

// Split returns the fields of s separated by delim.
// Empty fields are preserved, so "a,,b" has three fields, "a," has two,
// and the empty string has exactly one (empty) field.
func Split(s string, delim byte) []string {
	return strings.Split(s, string(delim))
}

// SplitWhitespace splits on runs of white space and never returns empty fields.
func SplitWhitespace(s string) []string {
	return strings.Fields(s)
}

// ToLower folds ASCII and Unicode letters to lower case.
func ToLower(s string) string {
	return strings.ToLower(s)
}

// RemoveQuotes strips one matching pair of double or single quotes.
// Input without a matching pair is returned unchanged.
func RemoveQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// ParsePercentage parses values like "45.67%", "45.67" or " 45% ".
func ParsePercentage(s string) (float64, error) {
	s = Trim(s)
	if s == "" {
		return -1, ErrEmpty
	}
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(Trim(s), 64)
	if err != nil {
		return -1, fmt.Errorf("percentage %q: %w", s, err)
	}
	return v, nil
}

// ParseInt returns the integer value of s, or def if s is not an integer.
func ParseInt(s string, def int32) int32 {
	v, err := strconv.ParseInt(Trim(s), 10, 32)
	if err != nil {
		return def
	}
	return int32(v)
}

// ParseUint returns the unsigned value of s, or def if s is not an unsigned integer.
func ParseUint(s string, def uint32) uint32 {
	v, err := strconv.ParseUint(Trim(s), 10, 32)
	if err != nil {
		return def
	}
	return uint32(v)
}

// ParseDouble returns the floating point value of s, or def on any failure.
func ParseDouble(s string, def float64) float64 {
	v, err := strconv.ParseFloat(Trim(s), 64)
	if err != nil {
		return def
	}
	return v
}

// IsNumber reports whether s is a decimal number with an optional sign and exponent.
func IsNumber(s string) bool {
	s = Trim(s)
	if s == "" {
		return false
	}
	return rxNumber.MatchString(s)
}

// CalculateCoveragePercentage returns 100*covered/total, or 0 when total is 0.
func CalculateCoveragePercentage(covered, total uint32) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(covered) / float64(total) * 100.0
}

// CoverageStatus maps a percentage to its reporting band.
func CoverageStatus(pct float64) string {
	switch {
	case pct >= 95.0:
		return "Excellent"
	case pct >= 80.0:
		return "Good"
	case pct >= 60.0:
		return "Fair"
	case pct > 0.0:
		return "Poor"
	}
	return "None"
}

// NormalizePath converts back-slashes to slashes and collapses repeated slashes.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

// Filename returns the last element of a slash or back-slash separated path.
func Filename(path string) string {
	if n := strings.LastIndexAny(path, `/\`); n != -1 {
		return path[n+1:]
	}
	return path
}

// Directory returns everything before the last separator, or "" if there is none.
func Directory(path string) string {
	if n := strings.LastIndexAny(path, `/\`); n != -1 {
		return path[:n]
	}
	return ""
}

// FormatNumber inserts a comma every three digits, counting from the right.
func FormatNumber(n uint32) string {
	return humanize.Comma(int64(n))
}

// dateLayouts are the time stamp formats seen in report headers.
// Runs of spaces are collapsed before matching, so the padded
// URG day ("Mon Sep  8 14:06:30 2025") matches the first layout.
var dateLayouts = []string{
	"Mon Jan 2 15:04:05 2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	time.RFC3339,
}

// ParseDateTime parses a report time stamp in local time.
// It returns the zero time and false if no layout matches.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
