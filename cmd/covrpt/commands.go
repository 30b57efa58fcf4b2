// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mdhender/covrpt/export"
	"github.com/mdhender/covrpt/metrics"
	"github.com/mdhender/covrpt/model"
	store "github.com/mdhender/covrpt/stores/sqlite"
	"github.com/mdhender/covrpt/textutil"
	"github.com/spf13/cobra"
)

func cmdParse() *cobra.Command {
	var src source
	var format, outputFile, label, metricsFile string
	save := false
	addFlags := func(cmd *cobra.Command) error {
		src.addFlags(cmd)
		cmd.Flags().StringVarP(&format, "format", "f", format, "export format: xml, json, yaml or msgpack (default from config)")
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "export the database to file")
		cmd.Flags().BoolVar(&save, "save", save, "save the database as a run in the sqlite store")
		cmd.Flags().StringVar(&label, "label", label, "label for the saved run")
		cmd.Flags().StringVar(&metricsFile, "metrics-file", metricsFile, "write Prometheus metrics to this textfile")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "parse [kind=]report-file ...",
		Short:        "parse coverage reports into a database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src.files = args
			collector := metrics.New()
			db, err := src.load(cmd.Context(), collector)
			if db == nil {
				return err
			}
			parseErr := err
			collector.ObserveDatabase(db)

			if err := db.Validate(); err != nil {
				logger.Warnf("database: %v", err)
			}
			printSummary(cmd.OutOrStdout(), db)

			if outputFile != "" {
				if err := exportTo(collector, db, format, outputFile); err != nil {
					return err
				}
			}
			if save {
				path := src.sqlitePath()
				if path == "" {
					return errors.New("--save needs --sqlite or store.sqlite_path")
				}
				st, err := store.Open(path)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Save(cmd.Context(), db, label); err != nil {
					return err
				}
				logger.Infof("%s: saved run %s", path, db.ID())
			}
			if err := writeMetrics(collector, metricsFile); err != nil {
				return err
			}
			return parseErr
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func exportTo(collector *metrics.Collector, db *model.CoverageDatabase, format, path string) error {
	if format == "" {
		format = cfg.Export.Format
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	err = export.ToFile(osFs, path, f, db)
	collector.ObserveExport(string(f), err)
	if err != nil {
		return err
	}
	logger.Infof("%s: exported %s", path, f)
	return nil
}

func cmdExport() *cobra.Command {
	var src source
	var format, outputFile, metricsFile string
	addFlags := func(cmd *cobra.Command) error {
		src.addFlags(cmd)
		cmd.Flags().StringVarP(&format, "format", "f", format, "export format: xml, json, yaml or msgpack (default from config)")
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "output file")
		cmd.Flags().StringVar(&metricsFile, "metrics-file", metricsFile, "write Prometheus metrics to this textfile")
		return cmd.MarkFlagRequired("output")
	}
	var cmd = &cobra.Command{
		Use:          "export [kind=]report-file ...",
		Short:        "export a database as XML, JSON, YAML or a snapshot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src.files = args
			collector := metrics.New()
			db, err := src.load(cmd.Context(), collector)
			if err != nil {
				return err
			}
			if err := exportTo(collector, db, format, outputFile); err != nil {
				return err
			}
			return writeMetrics(collector, metricsFile)
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdStats() *cobra.Command {
	var src source
	var pattern string
	showUncovered := false
	addFlags := func(cmd *cobra.Command) error {
		src.addFlags(cmd)
		cmd.Flags().StringVar(&pattern, "groups", pattern, "list groups whose name contains this text")
		cmd.Flags().BoolVar(&showUncovered, "uncovered", showUncovered, "list groups with no coverage")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "stats [kind=]report-file ...",
		Short:        "show coverage statistics",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src.files = args
			db, err := src.load(cmd.Context(), metrics.New())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSummary(w, db)
			if pattern != "" {
				fmt.Fprintf(w, "\nGroups matching %q:\n", pattern)
				printGroups(w, db.GroupsByPattern(pattern))
			}
			if showUncovered {
				fmt.Fprintf(w, "\nUncovered groups:\n")
				printGroups(w, db.UncoveredGroups())
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdRuns() *cobra.Command {
	var sqlitePath, deleteRun string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&sqlitePath, "sqlite", sqlitePath, "sqlite database for saved runs (default from config)")
		cmd.Flags().StringVar(&deleteRun, "delete", deleteRun, "delete the run with this id")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "runs",
		Short:        "list runs saved in the sqlite store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sqlitePath == "" {
				sqlitePath = cfg.Store.SQLitePath
			}
			if sqlitePath == "" {
				return errors.New("runs needs --sqlite or store.sqlite_path")
			}
			st, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: sqlitePath})
			if err != nil {
				return err
			}
			defer st.Close()

			if deleteRun != "" {
				id, err := uuid.Parse(deleteRun)
				if err != nil {
					return fmt.Errorf("delete: %w", err)
				}
				if err := st.DeleteRun(cmd.Context(), id); err != nil {
					return err
				}
				logger.Infof("%s: deleted run %s", sqlitePath, id)
				return nil
			}

			runs, err := st.Runs(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tSAVED\tSCORE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Label, humanize.Time(r.CreatedAt), band(r.OverallScore))
			}
			return tw.Flush()
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

// band formats a score colored by its reporting band.
func band(score float64) string {
	var c *color.Color
	switch textutil.CoverageStatus(score) {
	case "Excellent", "Good":
		c = color.New(color.FgGreen)
	case "Fair":
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	return c.Sprintf("%6.2f%% %s", score, textutil.CoverageStatus(score))
}

func printSummary(w io.Writer, db *model.CoverageDatabase) {
	bold := color.New(color.Bold)
	if d := db.Dashboard(); d != nil {
		bold.Fprintln(w, "Dashboard")
		fmt.Fprintf(w, "  date:      %s\n", d.Date)
		fmt.Fprintf(w, "  user:      %s\n", d.User)
		fmt.Fprintf(w, "  version:   %s\n", d.Version)
		fmt.Fprintf(w, "  total:     %s\n", band(d.TotalScore))
		fmt.Fprintf(w, "  asserts:   %s (%s/%s)\n", band(d.AssertCoverage.Score),
			textutil.FormatNumber(d.AssertCoverage.Covered), textutil.FormatNumber(d.AssertCoverage.Expected))
		fmt.Fprintf(w, "  groups:    %s (%s/%s)\n", band(d.GroupCoverage.Score),
			textutil.FormatNumber(d.GroupCoverage.Covered), textutil.FormatNumber(d.GroupCoverage.Expected))
		fmt.Fprintf(w, "  instances: %s\n", textutil.FormatNumber(d.NumHierarchicalInstances))
	}

	stats := db.GenerateStatistics()
	bold.Fprintln(w, "Database")
	fmt.Fprintf(w, "  groups:    %s\n", humanize.Comma(int64(db.NumGroups())))
	fmt.Fprintf(w, "  hierarchy: %s\n", humanize.Comma(int64(db.NumHierarchy())))
	fmt.Fprintf(w, "  modules:   %s\n", humanize.Comma(int64(db.NumModules())))
	fmt.Fprintf(w, "  asserts:   %s\n", humanize.Comma(int64(db.NumAsserts())))
	fmt.Fprintf(w, "  points:    %s/%s\n", textutil.FormatNumber(stats.CoveredPoints), textutil.FormatNumber(stats.TotalCoveragePoints))
	fmt.Fprintf(w, "  zero:      %d groups\n", stats.NumZeroCoverageGroups)
	fmt.Fprintf(w, "  full:      %d groups\n", stats.NumFullCoverageGroups)
	fmt.Fprintf(w, "  overall:   %s\n", band(stats.OverallCoverageScore))
}

func printGroups(w io.Writer, groups []*model.CoverageGroup) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tCOVERED\tEXPECTED\tSCORE\tGOAL")
	for _, g := range groups {
		goal := "met"
		if !g.MeetsGoal() {
			goal = "missed"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", g.Name,
			textutil.FormatNumber(g.Coverage.Covered), textutil.FormatNumber(g.Coverage.Expected), band(g.Coverage.Score), goal)
	}
	_ = tw.Flush()
}
