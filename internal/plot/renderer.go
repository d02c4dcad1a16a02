package plot

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Renderer consumes a generated plot script.
type Renderer interface {
	Render(ctx context.Context, script string) error
}

// Gnuplot pipes scripts into a gnuplot process.
type Gnuplot struct {
	Path string // defaults to "gnuplot" looked up in PATH
}

// Render runs gnuplot with script on its standard input.
func (g Gnuplot) Render(ctx context.Context, script string) error {
	path := g.Path
	if path == "" {
		path = "gnuplot"
	}
	cmd := exec.CommandContext(ctx, path)
	cmd.Stdin = strings.NewReader(script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", path, err, msg)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Nop discards scripts.
type Nop struct{}

// Render does nothing.
func (Nop) Render(context.Context, string) error { return nil }
