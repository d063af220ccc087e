// Command jumptrain fits the distance-to-duration model and reports how
// well it fits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"jumpbot/internal/history"
	"jumpbot/internal/model"
)

func main() {
	dataPath := flag.String("data", "training.txt", "Training set (\"<distance> <duration_ms> [hit_center]\" lines)")
	dbPath := flag.String("history", "", "Also train on calibrations recorded in this history database")
	kindName := flag.String("model", string(model.KindPoly), "Model: linear or poly")
	degree := flag.Int("degree", model.DefaultDegree, "Polynomial degree")
	plotPath := flag.String("plot", "", "Write a scatter plot with the fitted curve to this PNG")
	predict := flag.String("predict", "", "Comma-separated distances to predict")
	flag.Parse()

	kind, err := model.ParseKind(*kindName)
	if err != nil {
		fatalf("%v", err)
	}

	samples, err := model.LoadDataset(*dataPath)
	if err != nil {
		fatalf("Failed to load training set: %v", err)
	}
	fmt.Printf("Loaded %d samples from %s\n", len(samples), *dataPath)

	if *dbPath != "" {
		db, err := history.Open(*dbPath)
		if err != nil {
			fatalf("Failed to open history: %v", err)
		}
		extra, err := db.Samples(context.Background())
		db.Close()
		if err != nil {
			fatalf("Failed to read history: %v", err)
		}
		fmt.Printf("Loaded %d recorded calibrations from %s\n", len(extra), *dbPath)
		samples = append(samples, extra...)
	}

	hits := 0
	for _, s := range samples {
		if s.HitCenter {
			hits++
		}
	}
	if len(samples) > 0 {
		fmt.Printf("Center hits: %d/%d (%.1f%%)\n", hits, len(samples), 100*float64(hits)/float64(len(samples)))
	}

	r, err := model.Train(kind, *degree, samples)
	if err != nil {
		fatalf("Training failed: %v", err)
	}

	fmt.Printf("\nModel: %s (degree %d)\n", kind, r.Degree())
	fmt.Printf("  duration = %s\n", r)
	for j, c := range r.Coefficients() {
		fmt.Printf("  c%d = %.6g\n", j, c)
	}
	fmt.Printf("  RMS residual: %.2f ms\n", r.RMS())

	if *predict != "" {
		fmt.Printf("\n%10s %12s\n", "Distance", "Duration")
		for _, field := range strings.Split(*predict, ",") {
			d, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				fatalf("Bad distance %q: %v", field, err)
			}
			fmt.Printf("%10.1f %12.0f\n", d, r.Predict(d))
		}
	}

	if *plotPath != "" {
		if err := model.PlotFit(samples, r, *plotPath); err != nil {
			fatalf("Failed to plot: %v", err)
		}
		fmt.Printf("\nPlot written to %s\n", *plotPath)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
