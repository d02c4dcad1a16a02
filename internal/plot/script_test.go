package plot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScript(t *testing.T) {
	got := Script(Spec{
		Name:     "host1",
		Metric:   "%util",
		DataFile: "/data/host1.%util.dat",
		Devices:  []string{"sda", "sdb", "sdc"},
	})
	want := `set term png size 1600,1200
set style data l
set grid
set output "/data/host1.%util.dat.png"
set xdata time
set timefmt "%m/%d/%y %H:%M:%S"
set format x "%H:%M"
set xlabel "time"
set ylabel "%util"
set title "%util [host1]"
set datafile missing "-"
plot "/data/host1.%util.dat" using 1:($3 + 0) title "sda", "/data/host1.%util.dat" using 1:($4 + 100) title "sdb", "/data/host1.%util.dat" using 1:($5 + 200) title "sdc"
`
	if got != want {
		t.Errorf("script =\n%s\nwant\n%s", got, want)
	}
}

func TestScriptOverrides(t *testing.T) {
	got := Script(Spec{
		Name:     "n",
		Metric:   "r/s",
		DataFile: "a.dat",
		Image:    "out.png",
		Devices:  []string{"sda"},
		Width:    800,
		Height:   600,
	})
	for _, want := range []string{
		"set term png size 800,600\n",
		"set output \"out.png\"\n",
		"plot \"a.dat\" using 1:($3 + 0) title \"sda\"\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("script missing %q:\n%s", want, got)
		}
	}
}

func TestScriptOffset(t *testing.T) {
	offset := func(n int) *int { return &n }
	tests := []struct {
		name   string
		offset *int
		want   string
	}{
		{"default", nil, `"a.dat" using 1:($4 + 100) title "sdb"`},
		{"flat", offset(0), `"a.dat" using 1:($4 + 0) title "sdb"`},
		{"wide", offset(250), `"a.dat" using 1:($4 + 250) title "sdb"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Script(Spec{DataFile: "a.dat", Devices: []string{"sda", "sdb"}, Offset: tt.offset})
			if !strings.Contains(got, tt.want) {
				t.Errorf("script missing %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	if got := quote(`a"b\c`); got != `"a\"b\\c"` {
		t.Errorf("quote = %s", got)
	}
}

func TestNopRenderer(t *testing.T) {
	var r Renderer = Nop{}
	if err := r.Render(context.Background(), "plot x"); err != nil {
		t.Errorf("Nop.Render: %v", err)
	}
}

func TestGnuplotRendererPipesScript(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "script.txt")
	fake := filepath.Join(dir, "fake-gnuplot")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\ncat > "+out+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := (Gnuplot{Path: fake}).Render(context.Background(), "set grid\n"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "set grid\n" {
		t.Errorf("gnuplot stdin = %q", data)
	}
}

func TestGnuplotRendererError(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	fake := filepath.Join(t.TempDir(), "fail")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\necho 'line 1: bad' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	err := (Gnuplot{Path: fake}).Render(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Errorf("err = %v, want stderr in message", err)
	}
}
