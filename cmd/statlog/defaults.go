package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const defaultTimeout = 5 * time.Minute

// runContext bounds a command run by the configured timeout. It covers
// cloud transfers and the gnuplot subprocess. The caller must call cancel.
func runContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := defaultTimeout
	if cfg != nil {
		timeout = cfg.Timeout()
	}
	return context.WithTimeout(parent, timeout)
}

// applyConfigDefaults sets flag values from config when the flag
// was not explicitly set on the command line. Flags > env > config > defaults.
// The config package already handles env > config, so we just need to
// check if the flag was changed and apply config if not.
func applyConfigDefaults(cmd *cobra.Command) {
	if cfg == nil {
		return
	}

	setDefault := func(name, value string) {
		if value != "" && !cmd.Flags().Changed(name) {
			if f := cmd.Flags().Lookup(name); f != nil {
				_ = f.Value.Set(value)
			}
		}
	}

	// query defaults
	setDefault("date", cfg.DefaultDate(time.Now()))

	// iostat defaults
	setDefault("devices", cfg.Iostat.Devices)
	setDefault("gnuplot", cfg.Iostat.Gnuplot)
	setDefault("upload", cfg.Iostat.Upload)
}
