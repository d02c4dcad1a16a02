package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/statlog/internal/cli"
	"github.com/ppiankov/statlog/internal/config"
	"github.com/ppiankov/statlog/internal/logging"
)

var version = "dev"

var (
	cfg        *config.Config
	verbose    bool
	logFile    string
	jsonErrors bool
)

func main() {
	if err := execute(); err != nil {
		cli.FormatError(os.Stderr, err, jsonErrors)
		os.Exit(cli.ExitCode(err))
	}
}

func execute() error {
	cfg = config.Load()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "statlog",
		Short:         "Extract time series from ceph-stats and iostat logs",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := logging.Options{Verbose: verbose, File: logFile}
			if cfg != nil {
				if !cmd.Flags().Changed("verbose") {
					opts.Verbose = opts.Verbose || cfg.Defaults.Verbose
				}
				if opts.File == "" {
					opts.File = cfg.Defaults.LogFile
				}
			}
			logger := logging.New(opts, cmd.ErrOrStderr())
			cmd.SetContext(logging.WithContext(cmd.Context(), logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug diagnostics to stderr")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "write diagnostics to a rotated file instead of stderr")
	root.PersistentFlags().BoolVar(&jsonErrors, "json-errors", false, "report errors as JSON on stderr")

	root.AddCommand(newQueryCmd())
	root.AddCommand(newIostatCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newCompletionCmd())
	return root
}
