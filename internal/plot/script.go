// Package plot generates gnuplot scripts for series files and hands them
// to a Renderer.
package plot

import (
	"fmt"
	"strings"
)

// Defaults for the generated image.
const (
	DefaultWidth  = 1600
	DefaultHeight = 1200
	DefaultOffset = 100
)

// TimeFormat is the gnuplot timefmt of iostat -t timestamps.
const TimeFormat = "%m/%d/%y %H:%M:%S"

// Spec describes one plot.
type Spec struct {
	Name     string
	Metric   string
	DataFile string
	Image    string
	Devices  []string
	Width    int
	Height   int
	Offset   *int // vertical shift between consecutive device curves; nil means DefaultOffset
}

// ImagePath returns the image written for a series file.
func ImagePath(dataFile string) string {
	return dataFile + ".png"
}

// Script renders spec as a gnuplot program. Device i is read from column
// 3+i (columns 1 and 2 are the date and time) and shifted up by i*Offset.
func Script(spec Spec) string {
	width, height := spec.Width, spec.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	offset := DefaultOffset
	if spec.Offset != nil {
		offset = *spec.Offset
	}
	image := spec.Image
	if image == "" {
		image = ImagePath(spec.DataFile)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "set term png size %d,%d\n", width, height)
	b.WriteString("set style data l\n")
	b.WriteString("set grid\n")
	fmt.Fprintf(&b, "set output %s\n", quote(image))
	b.WriteString("set xdata time\n")
	fmt.Fprintf(&b, "set timefmt %s\n", quote(TimeFormat))
	b.WriteString("set format x \"%H:%M\"\n")
	b.WriteString("set xlabel \"time\"\n")
	fmt.Fprintf(&b, "set ylabel %s\n", quote(spec.Metric))
	fmt.Fprintf(&b, "set title %s\n", quote(spec.Metric+" ["+spec.Name+"]"))
	b.WriteString("set datafile missing \"-\"\n")

	curves := make([]string, len(spec.Devices))
	for i, dev := range spec.Devices {
		curves[i] = fmt.Sprintf("%s using 1:($%d + %d) title %s",
			quote(spec.DataFile), 3+i, i*offset, quote(dev))
	}
	fmt.Fprintf(&b, "plot %s\n", strings.Join(curves, ", "))
	return b.String()
}

func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
