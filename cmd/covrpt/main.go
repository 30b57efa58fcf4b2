// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mdhender/covrpt"
	"github.com/mdhender/covrpt/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    = config.Default()
	logger = zap.NewNop().Sugar()
	osFs   = afero.NewOsFs()
)

func main() {
	var configFile, logFormat string
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().StringVarP(&configFile, "config", "c", configFile, "load configuration from file (default ./covrpt.yaml)")
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().StringVar(&logFormat, "log-format", logFormat, "log format (console or json)")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "covrpt",
		Short: "functional coverage report utility",
		Long:  `Parse, query and export functional coverage reports`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(osFs, configFile)
			if err != nil {
				return err
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				loaded.Log.Level = "debug"
			}
			if logFormat != "" {
				loaded.Log.Format = logFormat
				if err := loaded.Validate(); err != nil {
					return err
				}
			}
			if logger, err = loaded.Logger(); err != nil {
				return err
			}
			cfg = loaded

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Println(covrpt.Banner())
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	cmdRoot.AddCommand(cmdParse())
	cmdRoot.AddCommand(cmdExport())
	cmdRoot.AddCommand(cmdStats())
	cmdRoot.AddCommand(cmdRuns())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(covrpt.Version().String())
				return nil
			}
			fmt.Println(covrpt.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
