// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package export writes a coverage database as an XML, JSON or YAML summary,
// or as a msgpack snapshot that can be loaded back.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mdhender/covrpt/model"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	XMLFormat      Format = "xml"
	JSONFormat     Format = "json"
	YAMLFormat     Format = "yaml"
	SnapshotFormat Format = "msgpack"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "xml":
		return XMLFormat, nil
	case "json":
		return JSONFormat, nil
	case "yaml", "yml":
		return YAMLFormat, nil
	case "msgpack", "mp", "snapshot":
		return SnapshotFormat, nil
	}
	return "", fmt.Errorf("%q: unknown export format: %w", s, model.ErrInvalidParameter)
}

// Score is a percentage written with two decimals in every format.
type Score float64

func (s Score) String() string {
	return strconv.FormatFloat(float64(s), 'f', 2, 64)
}

func (s Score) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Score) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s.String()}, nil
}

// Report is the summary written by XML, JSON and YAML.
type Report struct {
	Summary   Summary    `json:"summary" yaml:"summary"`
	Groups    []Group    `json:"groups,omitempty" yaml:"groups,omitempty"`
	Hierarchy []Instance `json:"hierarchy,omitempty" yaml:"hierarchy,omitempty"`
}

// xmlReport is the XML layout of a Report. A section with no records is
// a nil pointer so that its parent element is left out.
type xmlReport struct {
	XMLName   xml.Name      `xml:"coverage_report"`
	Summary   Summary       `xml:"summary"`
	Groups    *xmlGroups    `xml:"groups"`
	Hierarchy *xmlHierarchy `xml:"hierarchy"`
}

type xmlGroups struct {
	Items []Group `xml:"group"`
}

type xmlHierarchy struct {
	Items []Instance `xml:"instance"`
}

// MarshalXML writes the report as a coverage_report element.
func (r *Report) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	doc := xmlReport{Summary: r.Summary}
	if len(r.Groups) != 0 {
		doc.Groups = &xmlGroups{Items: r.Groups}
	}
	if len(r.Hierarchy) != 0 {
		doc.Hierarchy = &xmlHierarchy{Items: r.Hierarchy}
	}
	return e.Encode(doc)
}

type Summary struct {
	TotalGroups             int   `xml:"total_groups" json:"total_groups" yaml:"total_groups"`
	TotalHierarchyInstances int   `xml:"total_hierarchy_instances" json:"total_hierarchy_instances" yaml:"total_hierarchy_instances"`
	TotalModules            int   `xml:"total_modules" json:"total_modules" yaml:"total_modules"`
	TotalAsserts            int   `xml:"total_asserts" json:"total_asserts" yaml:"total_asserts"`
	OverallScore            Score `xml:"overall_score" json:"overall_score" yaml:"overall_score"`
}

type Group struct {
	Name     string `xml:"name" json:"name" yaml:"name"`
	Covered  uint32 `xml:"covered" json:"covered" yaml:"covered"`
	Expected uint32 `xml:"expected" json:"expected" yaml:"expected"`
	Score    Score  `xml:"score" json:"score" yaml:"score"`
}

type Instance struct {
	Path   string `xml:"path" json:"path" yaml:"path"`
	Module string `xml:"module" json:"module" yaml:"module"`
	Depth  uint32 `xml:"depth" json:"depth" yaml:"depth"`
	Score  Score  `xml:"score" json:"score" yaml:"score"`
}

// NewReport builds the summary of db. Groups and instances are sorted by key.
func NewReport(db *model.CoverageDatabase) *Report {
	r := &Report{
		Summary: Summary{
			TotalGroups:             db.NumGroups(),
			TotalHierarchyInstances: db.NumHierarchy(),
			TotalModules:            db.NumModules(),
			TotalAsserts:            db.NumAsserts(),
			OverallScore:            Score(db.CalculateOverallScore()),
		},
	}
	for _, g := range db.Groups() {
		r.Groups = append(r.Groups, Group{
			Name:     g.Name,
			Covered:  g.Coverage.Covered,
			Expected: g.Coverage.Expected,
			Score:    Score(g.Coverage.Score),
		})
	}
	for _, h := range db.Hierarchy() {
		r.Hierarchy = append(r.Hierarchy, Instance{
			Path:   h.InstancePath,
			Module: h.ModuleName,
			Depth:  h.DepthLevel,
			Score:  Score(h.TotalScore),
		})
	}
	return r
}

// document wraps the report for the formats that have no root element name.
type document struct {
	CoverageReport *Report `json:"coverage_report" yaml:"coverage_report"`
}

// XML writes the summary of db as an indented XML document.
func XML(w io.Writer, db *model.CoverageDatabase) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(NewReport(db)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// JSON writes the summary of db as an indented JSON object.
func JSON(w io.Writer, db *model.CoverageDatabase) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{CoverageReport: NewReport(db)})
}

// YAML writes the summary of db as a YAML document.
func YAML(w io.Writer, db *model.CoverageDatabase) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{CoverageReport: NewReport(db)}); err != nil {
		return err
	}
	return enc.Close()
}

// Write writes db to w in the given format.
func Write(w io.Writer, format Format, db *model.CoverageDatabase) error {
	switch format {
	case XMLFormat:
		return XML(w, db)
	case JSONFormat:
		return JSON(w, db)
	case YAMLFormat:
		return YAML(w, db)
	case SnapshotFormat:
		return SaveSnapshot(w, db)
	}
	return fmt.Errorf("%q: unknown export format: %w", format, model.ErrInvalidParameter)
}

// ToFile creates path and writes db to it.
// A file that cannot be created is reported as model.ErrFileNotFound;
// a failure while writing is reported as model.ErrOutOfMemory.
func ToFile(fs afero.Fs, path string, format Format, db *model.CoverageDatabase) error {
	if db == nil || path == "" {
		return &model.ExportError{Format: string(format), Path: path, Err: model.ErrInvalidParameter}
	}
	switch format {
	case XMLFormat, JSONFormat, YAMLFormat, SnapshotFormat:
	default:
		return &model.ExportError{Format: string(format), Path: path, Err: model.ErrInvalidParameter}
	}
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &model.ExportError{Format: string(format), Path: path, Err: fmt.Errorf("%w: %w", model.ErrFileNotFound, err)}
	}
	if err := Write(f, format, db); err != nil {
		_ = f.Close()
		return &model.ExportError{Format: string(format), Path: path, Err: fmt.Errorf("%w: %w", model.ErrOutOfMemory, err)}
	}
	if err := f.Close(); err != nil {
		return &model.ExportError{Format: string(format), Path: path, Err: fmt.Errorf("%w: %w", model.ErrOutOfMemory, err)}
	}
	return nil
}
