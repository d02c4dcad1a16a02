package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/statlog/internal/cli"
	"github.com/ppiankov/statlog/internal/cloud"
	"github.com/ppiankov/statlog/internal/iostat"
	"github.com/ppiankov/statlog/internal/logging"
	"github.com/ppiankov/statlog/internal/pivot"
	"github.com/ppiankov/statlog/internal/plot"
	"github.com/ppiankov/statlog/internal/source"
	"github.com/ppiankov/statlog/internal/stats"
)

type iostatOptions struct {
	DataDir     string
	Name        string
	Input       string
	Devices     string
	SaveScripts bool
	Parquet     string
	Upload      string
	MetricsFile string
	Plot        plot.Spec // size and offset; per-metric fields are filled in
}

// iostatDeps are the collaborators runIostat talks to.
type iostatDeps struct {
	opener     *source.Opener
	renderer   plot.Renderer
	newBackend func(ctx context.Context, loc cloud.Location) (cloud.Backend, error)
	stderr     io.Writer
}

func newIostatCmd() *cobra.Command {
	var (
		opts    iostatOptions
		gnuplot string
		noPlot  bool
	)

	cmd := &cobra.Command{
		Use:   "iostat <datadir> <name>",
		Short: "Pivot iostat -x -t output into per-metric series and plots",
		Long: `Read the output of "iostat -x -t -p <period> <count>" and write one
tab-separated series file per column (metric) to <datadir>, named
<name>.<metric>.dat, with one row per timestamp and one column per device.
Each series is then plotted with gnuplot into <name>.<metric>.dat.png.

Only devices matching --devices are kept (default: ` + iostat.DefaultDevices + `).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyConfigDefaults(cmd)
			opts.DataDir, opts.Name = args[0], args[1]
			if cfg != nil {
				opts.Plot.Width = cfg.Iostat.PlotWidth
				opts.Plot.Height = cfg.Iostat.PlotHeight
				opts.Plot.Offset = cfg.Iostat.PlotOffset
			}

			var renderer plot.Renderer = plot.Gnuplot{Path: gnuplot}
			if noPlot {
				renderer = plot.Nop{}
			}

			ctx, cancel := runContext(cmd.Context())
			defer cancel()

			return runIostat(ctx, opts, iostatDeps{
				opener:     source.NewOpener(),
				renderer:   renderer,
				newBackend: cloud.NewBackend,
				stderr:     cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", source.Stdin, "iostat output to read (path, -, s3:// or gs:// URL)")
	cmd.Flags().StringVar(&opts.Devices, "devices", "", "regexp of device names to keep (default "+iostat.DefaultDevices+")")
	cmd.Flags().StringVar(&gnuplot, "gnuplot", "gnuplot", "gnuplot executable")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "write series files only")
	cmd.Flags().BoolVar(&opts.SaveScripts, "save-scripts", false, "also write each plot script as <name>.<metric>.dat.gp")
	cmd.Flags().StringVar(&opts.Parquet, "parquet", "", "also write all cells to this parquet file")
	cmd.Flags().StringVar(&opts.Upload, "upload", "", "upload generated files to s3://bucket/prefix or gs://bucket/prefix")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write run counters in Prometheus textfile format")

	return cmd
}

func runIostat(ctx context.Context, opts iostatOptions, deps iostatDeps) error {
	log := logging.FromContext(ctx)
	start := time.Now()

	parser, err := iostat.NewParser(opts.Devices)
	if err != nil {
		return cli.NewUsageError(err.Error())
	}
	var dest cloud.Location
	if opts.Upload != "" {
		if dest, err = cloud.ParseURL(opts.Upload); err != nil {
			return cli.NewUsageError(fmt.Sprintf("invalid --upload: %v", err))
		}
	}

	rc, opened, err := deps.opener.Open(ctx, opts.Input)
	if err != nil {
		return openError(opts.Input, err)
	}
	defer func() { _ = rc.Close() }()

	m := stats.New("iostat")
	table := pivot.NewTable()
	var st iostat.State
	ps, err := parser.Parse(rc, &st, func(c iostat.Cell) {
		table.Add(c.Column, c.Timestamp, c.Device, c.Value)
	})
	m.ObserveParse(ps)
	if err != nil {
		return fmt.Errorf("parse %s: %w", opened, err)
	}
	log.Debugw("parsed iostat", "input", opened, "lines", ps.Lines, "rows", ps.Rows,
		"cells", ps.Cells, "ignored", ps.Ignored)
	if ps.Dropped > 0 {
		log.Warnw("device rows before the first timestamp or header were dropped", "rows", ps.Dropped)
	}
	if table.Len() == 0 {
		_, _ = fmt.Fprintf(deps.stderr, "No device rows found in %s\n", opened)
		return finishMetrics(m, start, opts.MetricsFile)
	}

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", opts.DataDir, err)
	}

	written, plotErr, err := writeSeries(ctx, table, opts, deps.renderer, m)
	if err != nil {
		return err
	}

	if opts.Parquet != "" {
		rows, err := pivot.WriteParquet(opts.Parquet, opts.Name, table)
		if err != nil {
			return err
		}
		m.FilesWritten.Inc()
		written = append(written, opts.Parquet)
		log.Debugw("wrote parquet", "path", opts.Parquet, "rows", rows)
	}

	_, _ = fmt.Fprintf(deps.stderr, "Wrote %d series to %s\n", table.Len(), opts.DataDir)

	if opts.Upload != "" {
		if err := upload(ctx, deps, dest, written); err != nil {
			return err
		}
	}

	if err := finishMetrics(m, start, opts.MetricsFile); err != nil {
		return err
	}
	if plotErr != nil {
		return fmt.Errorf("plot: %w", plotErr)
	}
	return nil
}

// writeSeries writes and plots every metric and returns the files written.
// A failed plot does not stop the remaining metrics and is reported as
// plotErr; a write failure stops immediately.
func writeSeries(ctx context.Context, table *pivot.Table, opts iostatOptions, renderer plot.Renderer, m *stats.Metrics) (written []string, plotErr, err error) {
	log := logging.FromContext(ctx)
	for _, metric := range table.Metrics() {
		path, err := table.WriteFile(opts.DataDir, opts.Name, metric)
		if err != nil {
			return written, plotErr, err
		}
		m.FilesWritten.Inc()
		written = append(written, path)

		spec := opts.Plot
		spec.Name = opts.Name
		spec.Metric = metric
		spec.DataFile = path
		spec.Image = plot.ImagePath(path)
		spec.Devices = table.Devices(metric)
		script := plot.Script(spec)

		if opts.SaveScripts {
			if err := os.WriteFile(path+".gp", []byte(script), 0o644); err != nil {
				return written, plotErr, fmt.Errorf("write %s.gp: %w", path, err)
			}
			m.FilesWritten.Inc()
			written = append(written, path+".gp")
		}

		if err := renderer.Render(ctx, script); err != nil {
			m.PlotErrors.Inc()
			log.Warnw("plot failed", "metric", metric, "error", err)
			if plotErr == nil {
				plotErr = fmt.Errorf("%s: %w", metric, err)
			}
			continue
		}
		if _, err := os.Stat(spec.Image); err == nil {
			written = append(written, spec.Image)
		}
	}
	return written, plotErr, nil
}

func upload(ctx context.Context, deps iostatDeps, dest cloud.Location, paths []string) error {
	backend, err := deps.newBackend(ctx, dest)
	if err != nil {
		return cli.NewNetworkError(fmt.Sprintf("connect to %s: %v", dest.Scheme, err)).Wrap(err)
	}
	defer func() { _ = backend.Close() }()
	ps, err := cloud.Publish(ctx, backend, dest, paths)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return cli.NewNetworkError(fmt.Sprintf("upload to %s: %v", dest, err)).Wrap(err)
	}
	_, _ = fmt.Fprintf(deps.stderr, "Uploaded %d files (%d bytes) to %s\n", ps.Files, ps.Bytes, dest)
	return nil
}

func finishMetrics(m *stats.Metrics, start time.Time, path string) error {
	if path == "" {
		return nil
	}
	m.Finish(start, time.Now())
	return m.WriteTextfile(path)
}
