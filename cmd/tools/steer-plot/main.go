// Command steer-plot renders a steering trace from a fixture file or a
// recorded session as a PNG, and optionally as an interactive HTML chart.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/banshee-data/arcontrol/internal/config"
	"github.com/banshee-data/arcontrol/internal/db"
	"github.com/banshee-data/arcontrol/internal/security"
	"github.com/banshee-data/arcontrol/internal/serialmux"
	"github.com/banshee-data/arcontrol/internal/steering"
	"github.com/banshee-data/arcontrol/internal/trace"
)

func main() {
	fixture := flag.String("fixture", "", "accelerometer fixture to replay")
	dbPath := flag.String("db", "", "database holding recorded sessions")
	sessionID := flag.String("session", "", "session id to plot (requires -db)")
	configPath := flag.String("config", "", "tuning config for the replay filter")
	alpha := flag.Float64("alpha", 0, "override smoothing alpha for the replay")
	output := flag.String("o", "steering.png", "output image path")
	htmlOut := flag.String("html", "", "also write an interactive chart here")
	flag.Parse()

	for _, out := range []string{*output, *htmlOut} {
		if out == "" {
			continue
		}
		if err := security.ValidateOutputPath(out); err != nil {
			log.Fatalf("invalid output path: %v", err)
		}
	}

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg.Merge(loaded)
	}
	a := cfg.GetSmoothingAlpha()
	if *alpha != 0 {
		a = *alpha
	}

	var (
		points []db.TracePoint
		title  string
		err    error
	)
	switch {
	case *fixture != "":
		points, err = replayFixture(*fixture, a, cfg.GetSampleInterval())
		title = *fixture
	case *dbPath != "" && *sessionID != "":
		points, err = loadSession(*dbPath, *sessionID)
		title = "session " + *sessionID
	default:
		log.Fatal("need -fixture or -db with -session")
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := trace.SavePNG(*output, title, points); err != nil {
		log.Fatalf("failed to write plot: %v", err)
	}
	log.Printf("wrote %d samples to %s", len(points), *output)

	if *htmlOut != "" {
		f, err := os.Create(*htmlOut)
		if err != nil {
			log.Fatalf("failed to create %s: %v", *htmlOut, err)
		}
		defer f.Close()
		if err := trace.RenderHTML(f, title, points); err != nil {
			log.Fatalf("failed to render chart: %v", err)
		}
		log.Printf("wrote chart to %s", *htmlOut)
	}
}

func replayFixture(path string, alpha float64, interval time.Duration) ([]db.TracePoint, error) {
	lines, err := serialmux.LoadFixture(path)
	if err != nil {
		return nil, err
	}
	samples := make([]steering.Sample, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		if serialmux.ClassifyPayload(line) != serialmux.EventTypeSample {
			continue
		}
		s, err := serialmux.ParseSample(line, time.Time{})
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, s)
	}
	if skipped > 0 {
		log.Printf("skipped %d malformed lines", skipped)
	}
	return trace.Replay(samples, alpha, time.Unix(0, 0).UTC(), interval)
}

func loadSession(path, id string) ([]db.TracePoint, error) {
	store, err := db.NewDB(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.SessionTrace(id, 0)
}
