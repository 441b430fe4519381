// Command plottrace renders a recorded CSV session into PNG charts.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"plate-tracker/internal/telemetry"
)

func main() {
	in := flag.String("in", "", "Session CSV written by plate-tracker -record")
	outDir := flag.String("out", "", "Output directory (defaults to the CSV's directory)")
	flag.Parse()

	if *in == "" {
		fmt.Println("Usage: plottrace -in <session.csv> [-out dir]")
		os.Exit(1)
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session: %v\n", err)
		os.Exit(1)
	}
	samples, err := telemetry.ReadSamples(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d samples\n", len(samples))

	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(*in)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	prefix := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	files, err := telemetry.PlotSession(samples, dir, prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plot failed: %v\n", err)
		os.Exit(1)
	}
	for _, f := range files {
		fmt.Printf("Wrote %s\n", f)
	}
}
