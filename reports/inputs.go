// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package reports finds the report files in a coverage tool's output directory.
package reports

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/parsers"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	// report files are named KIND.txt, optionally with a prefix or suffix
	// separated by a dot, dash or underscore (e.g. run1_groups.txt, asserts-full.txt).
	rxReportFile = map[parsers.Kind]*regexp.Regexp{
		parsers.Dashboard:  regexp.MustCompile(`(?i)^(?:.*[._-])?dashboard(?:[._-].*)?\.txt$`),
		parsers.Groups:     regexp.MustCompile(`(?i)^(?:.*[._-])?groups?(?:[._-].*)?\.txt$`),
		parsers.Hierarchy:  regexp.MustCompile(`(?i)^(?:.*[._-])?hier(?:archy)?(?:[._-].*)?\.txt$`),
		parsers.ModuleList: regexp.MustCompile(`(?i)^(?:.*[._-])?mod(?:ule)?list(?:[._-].*)?\.txt$`),
		parsers.Assert:     regexp.MustCompile(`(?i)^(?:.*[._-])?asserts?(?:[._-].*)?\.txt$`),
	}
)

// Input is a report file found in a directory.
type Input struct {
	Kind parsers.Kind
	Name string // the file name
	Path string // the directory joined with the file name
}

// Detect returns the kind of report a file name refers to.
func Detect(fileName string) (parsers.Kind, bool) {
	for _, kind := range parsers.Kinds {
		if rxReportFile[kind].MatchString(fileName) {
			return kind, true
		}
	}
	return 0, false
}

// CollectInputs returns the report files in dir, dashboard first, then in
// the order of parsers.Kinds and by name. Sub-directories are not searched.
func CollectInputs(fs afero.Fs, dir string, log *zap.SugaredLogger) ([]*Input, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, &model.ParseError{Op: "readdir", Path: dir, Err: fmt.Errorf("%w: %w", model.ErrFileNotFound, err)}
	}
	var inputs []*Input
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		kind, ok := Detect(entry.Name())
		if !ok {
			log.Debugf("reports: %q: not a coverage report", entry.Name())
			continue
		}
		inputs = append(inputs, &Input{Kind: kind, Name: entry.Name(), Path: filepath.Join(dir, entry.Name())})
	}
	sort.SliceStable(inputs, func(i, j int) bool {
		if inputs[i].Kind != inputs[j].Kind {
			return inputs[i].Kind < inputs[j].Kind
		}
		return inputs[i].Name < inputs[j].Name
	})
	return inputs, nil
}

// Result pairs an input with the outcome of parsing it.
type Result struct {
	Input *Input
	Stats parsers.Stats
	Err   error
}

// Load parses every report in dir into db. A report that fails is recorded
// in its Result and does not stop the others. The error is only set when
// the directory cannot be read or the options are invalid.
func Load(ctx context.Context, fs afero.Fs, dir string, db *model.CoverageDatabase, log *zap.SugaredLogger, opts ...parsers.Option) ([]Result, error) {
	inputs, err := CollectInputs(fs, dir, log)
	if err != nil {
		return nil, err
	}
	opts = append([]parsers.Option{parsers.WithFs(fs)}, opts...)
	var results []Result
	for _, input := range inputs {
		p, err := parsers.ForFile(input.Kind, input.Path, opts...)
		if err != nil {
			return results, err
		}
		stats, err := p.Parse(ctx, input.Path, db)
		results = append(results, Result{Input: input, Stats: stats, Err: err})
	}
	return results, nil
}
