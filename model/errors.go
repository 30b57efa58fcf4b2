// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"errors"
	"fmt"
)

// ResultCode is the numeric outcome returned across the handle boundary.
type ResultCode int

const (
	Success ResultCode = iota
	FileNotFound
	ParseFailed
	InvalidFormat
	OutOfMemory
	InvalidParameter
)

func (rc ResultCode) String() string {
	switch rc {
	case Success:
		return "SUCCESS"
	case FileNotFound:
		return "ERROR_FILE_NOT_FOUND"
	case ParseFailed:
		return "ERROR_PARSE_FAILED"
	case InvalidFormat:
		return "ERROR_INVALID_FORMAT"
	case OutOfMemory:
		return "ERROR_MEMORY_ALLOCATION"
	case InvalidParameter:
		return "ERROR_INVALID_PARAMETER"
	}
	return "UNKNOWN_ERROR"
}

// Message returns a human readable description of the code.
func (rc ResultCode) Message() string {
	switch rc {
	case Success:
		return "success"
	case FileNotFound:
		return "file not found or not accessible"
	case ParseFailed:
		return "parsing failed"
	case InvalidFormat:
		return "invalid file format"
	case OutOfMemory:
		return "memory allocation failed"
	case InvalidParameter:
		return "invalid parameter"
	}
	return "unknown error"
}

// Sentinel errors, one per failing ResultCode.
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrParseFailed      = errors.New("parse failed")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ParseError is returned when a parser cannot process a file.
type ParseError struct {
	Op   string // open, stat, map, parse
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExportError is returned when an exporter cannot write its output.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("export %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Code maps an error to its ResultCode. A nil error is Success.
func Code(err error) ResultCode {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrFileNotFound):
		return FileNotFound
	case errors.Is(err, ErrInvalidFormat):
		return InvalidFormat
	case errors.Is(err, ErrOutOfMemory):
		return OutOfMemory
	case errors.Is(err, ErrInvalidParameter):
		return InvalidParameter
	}
	return ParseFailed
}
