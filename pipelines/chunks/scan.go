// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package chunks

import (
	"bytes"
	"errors"
	"math"
	"strconv"
)

var ErrNotNumber = errors.New("not a number")

// IndexByte returns the index of the first c in b, or -1.
func IndexByte(b []byte, c byte) int {
	return bytes.IndexByte(b, c)
}

// Newlines returns the offset of every new-line in b, in order.
func Newlines(b []byte) []int {
	offsets := make([]int, 0, bytes.Count(b, []byte{'\n'}))
	for pos := 0; pos < len(b); {
		n := bytes.IndexByte(b[pos:], '\n')
		if n == -1 {
			break
		}
		offsets = append(offsets, pos+n)
		pos += n + 1
	}
	return offsets
}

// Lines calls fn for each line in b without its terminator.
// A trailing CR is removed. A final line without a new-line is still reported.
// Iteration stops early if fn returns false.
func Lines(b []byte, fn func(line []byte) bool) {
	for len(b) != 0 {
		var line []byte
		if n := bytes.IndexByte(b, '\n'); n == -1 {
			line, b = b, nil
		} else {
			line, b = b[:n], b[n+1:]
		}
		if len(line) != 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if !fn(line) {
			return
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

// SkipSpace returns b without leading white space.
func SkipSpace(b []byte) []byte {
	for len(b) != 0 && isSpace(b[0]) {
		b = b[1:]
	}
	return b
}

// Fields splits line on runs of white space, appending the fields to dst.
// The fields share storage with line.
func Fields(line []byte, dst [][]byte) [][]byte {
	for {
		line = SkipSpace(line)
		if len(line) == 0 {
			return dst
		}
		end := 0
		for end < len(line) && !isSpace(line[end]) {
			end++
		}
		dst = append(dst, line[:end])
		line = line[end:]
	}
}

// ParseUint parses an unsigned decimal.
// Up to 8 digits are converted in place; longer input goes through strconv.
func ParseUint(b []byte) (uint32, error) {
	if len(b) == 0 {
		return 0, ErrNotNumber
	}
	if len(b) > 8 {
		v, err := strconv.ParseUint(string(b), 10, 32)
		if err != nil {
			return 0, errors.Join(ErrNotNumber, err)
		}
		return uint32(v), nil
	}
	var v uint32
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, ErrNotNumber
		}
		v = v*10 + uint32(c-'0')
	}
	return v, nil
}

// ParseFloat parses a decimal of the form [-]digits[.digits].
// Integer and fraction parts of up to 8 digits each are converted in place;
// anything else, including exponents, goes through strconv.
func ParseFloat(b []byte) (float64, error) {
	if len(b) == 0 {
		return 0, ErrNotNumber
	}
	neg := b[0] == '-'
	digits := b
	if neg || b[0] == '+' {
		digits = b[1:]
	}
	whole, frac := digits, []byte(nil)
	if n := bytes.IndexByte(digits, '.'); n != -1 {
		whole, frac = digits[:n], digits[n+1:]
	}
	if len(whole) > 8 || len(frac) > 8 || (len(whole) == 0 && len(frac) == 0) {
		return slowFloat(b)
	}
	var w, f uint32
	for _, c := range whole {
		if c < '0' || c > '9' {
			return slowFloat(b)
		}
		w = w*10 + uint32(c-'0')
	}
	scale := 1.0
	for _, c := range frac {
		if c < '0' || c > '9' {
			return slowFloat(b)
		}
		f = f*10 + uint32(c-'0')
		scale *= 10
	}
	v := float64(w) + float64(f)/scale
	if neg {
		v = -v
	}
	return v, nil
}

// slowFloat accepts only decimal digits, signs, points and exponents,
// so NaN, Inf, hex floats and underscores are not numbers.
func slowFloat(b []byte) (float64, error) {
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
		case c == '+', c == '-', c == '.', c == 'e', c == 'E':
		default:
			return 0, ErrNotNumber
		}
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, errors.Join(ErrNotNumber, err)
	} else if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrNotNumber
	}
	return v, nil
}

// ParseRatio parses "covered/expected".
func ParseRatio(b []byte) (covered, expected uint32, err error) {
	n := bytes.IndexByte(b, '/')
	if n == -1 {
		return 0, 0, ErrNotNumber
	}
	if covered, err = ParseUint(b[:n]); err != nil {
		return 0, 0, err
	}
	if expected, err = ParseUint(b[n+1:]); err != nil {
		return 0, 0, err
	}
	return covered, expected, nil
}
