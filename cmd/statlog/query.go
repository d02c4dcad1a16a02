package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/statlog/internal/cli"
	"github.com/ppiankov/statlog/internal/config"
	"github.com/ppiankov/statlog/internal/logging"
	"github.com/ppiankov/statlog/internal/source"
	"github.com/ppiankov/statlog/internal/statlog"
	"github.com/ppiankov/statlog/internal/stats"
)

type queryOptions struct {
	Stat        string
	Keys        []string
	Log         string // resolved path or URL
	Pretty      bool
	MetricsFile string
}

func newQueryCmd() *cobra.Command {
	var (
		date        string
		file        string
		pretty      bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "query <stat> [key ...]",
		Short: "Print fields of a statistic from a ceph-stats log",
		Long: `Scan the ceph-stats log of one day for lines tagged [<stat>] and print the
requested keys of each JSON payload. A key is a space-separated path, for
example "pgmap bytes_used" or "pgs_by_state 0 count"; numeric segments index
arrays. Without keys the whole payload is printed.

The log path comes from CEPHSTATS_LOG_FILE (default
$CEPHSTATS_LOG_DIR/ceph-stats.{DATE}.log) with {DATE} replaced by --date.
Compressed .gz and .zst logs are picked up when the plain file is missing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd)

			log := file
			if log == "" {
				if date == "" {
					date = time.Now().Format(time.DateOnly)
				}
				if _, err := time.Parse(time.DateOnly, date); err != nil {
					return cli.NewUsageError(fmt.Sprintf("invalid --date %q: expected YYYY-MM-DD", date))
				}
				template := (&config.Config{}).LogFileTemplate()
				if cfg != nil {
					template = cfg.LogFileTemplate()
				}
				log = config.LogFile(template, date)
			}

			ctx, cancel := runContext(cmd.Context())
			defer cancel()

			return runQuery(ctx, cmd.OutOrStdout(), source.NewOpener(), queryOptions{
				Stat:        args[0],
				Keys:        args[1:],
				Log:         log,
				Pretty:      pretty,
				MetricsFile: metricsFile,
			})
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "date to read, YYYY-MM-DD (default today or $CEPHSTATS_DATE)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read this log (path, -, s3:// or gs:// URL) instead of the dated one")
	cmd.Flags().BoolVarP(&pretty, "json-pretty", "p", false, "print each key as indented JSON")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run counters in Prometheus textfile format")

	return cmd
}

func runQuery(ctx context.Context, out io.Writer, opener *source.Opener, opts queryOptions) error {
	log := logging.FromContext(ctx)
	start := time.Now()

	rc, opened, err := opener.Open(ctx, opts.Log)
	if err != nil {
		return openError(opts.Log, err)
	}
	defer func() { _ = rc.Close() }()
	log.Debugw("reading log", "path", opened, "stat", opts.Stat, "keys", opts.Keys)

	m := stats.New("query")
	st, err := statlog.Run(rc, statlog.NewScanner(opts.Stat), statlog.NewEmitter(out, opts.Keys, opts.Pretty))
	m.ObserveScan(st)
	log.Debugw("scan finished", "lines", st.Lines, "matched", st.Matched, "skipped", st.Skipped)

	var pe *statlog.PayloadError
	if errors.As(err, &pe) {
		return cli.NewDataError(fmt.Sprintf("%s: %v", opened, pe)).Wrap(err)
	}
	if err != nil {
		return fmt.Errorf("query %s: %w", opened, err)
	}
	if st.Matched == 0 {
		log.Warnw("no entries for stat", "stat", opts.Stat, "path", opened)
	}

	if opts.MetricsFile != "" {
		m.Finish(start, time.Now())
		return m.WriteTextfile(opts.MetricsFile)
	}
	return nil
}

// openError maps input open failures onto the CLI error categories.
func openError(name string, err error) error {
	switch {
	case errors.Is(err, source.ErrNotFound):
		return cli.NewNotFoundError(fmt.Sprintf("input not found: %s", name)).Wrap(err)
	case errors.Is(err, fs.ErrPermission):
		return cli.NewPermissionError(fmt.Sprintf("cannot read %s", name)).Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return cli.NewNetworkError(fmt.Sprintf("timed out opening %s", name)).Wrap(err)
	case errors.Is(err, source.ErrRemote):
		return cli.NewNetworkError(fmt.Sprintf("cannot fetch %s: %v", name, err)).Wrap(err)
	default:
		return fmt.Errorf("open %s: %w", name, err)
	}
}
