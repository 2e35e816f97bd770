package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/arcontrol/internal/api"
	"github.com/banshee-data/arcontrol/internal/config"
	"github.com/banshee-data/arcontrol/internal/db"
	"github.com/banshee-data/arcontrol/internal/drive"
	"github.com/banshee-data/arcontrol/internal/serialmux"
	"github.com/banshee-data/arcontrol/internal/steering"
	"github.com/banshee-data/arcontrol/internal/timeutil"
	"github.com/banshee-data/arcontrol/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	port          = flag.String("port", "/dev/ttyUSB0", "Accelerometer serial port")
	fixtures      = flag.String("fixtures", "", "Replay accelerometer lines from this file instead of the serial port")
	disableSensor = flag.Bool("disable-sensor", false, "Run without an accelerometer; samples arrive over HTTP only")
	listPorts     = flag.Bool("list-ports", false, "List serial ports and exit")
	dbPath        = flag.String("db", "arcontrol.db", "SQLite database for recorded sessions (empty disables recording)")
	configPath    = flag.String("config", "", "Tuning config (.json or .yaml); defaults apply when empty")
	label         = flag.String("label", "", "Label stored with the recorded session")
	baudRate      = flag.Int("baud", serialmux.DefaultBaudRate, "Serial baud rate")
	dataBits      = flag.Int("data-bits", 8, "Serial data bits")
	stopBits      = flag.Int("stop-bits", 1, "Serial stop bits (1 or 2)")
	parity        = flag.String("parity", "N", "Serial parity (N, E or O)")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}
	if *listPorts {
		ports, err := serialmux.ListPorts()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}
	log.Print(version.Get())
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		cfg.Merge(loaded)
		log.Printf("loaded tuning config from %s", *configPath)
	}

	sensor, source, err := openSensor(cfg)
	if err != nil {
		log.Fatalf("failed to open accelerometer: %v", err)
	}
	defer sensor.Close()

	if err := sensor.Initialize(); err != nil {
		log.Fatalf("failed to initialize accelerometer: %v", err)
	}
	log.Printf("initialized accelerometer (%s)", source)

	var store *db.DB
	if *dbPath != "" {
		store, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
	}

	filter, err := steering.NewFilter(cfg.GetSmoothingAlpha())
	if err != nil {
		log.Fatalf("invalid smoothing alpha: %v", err)
	}
	clock := timeutil.RealClock{}
	dcfg := drive.Config{
		Filter:        filter,
		Forces:        cfg.GetForceMap(),
		Clock:         clock,
		TickInterval:  cfg.GetTickInterval(),
		RecordSamples: cfg.GetRecordSamples(),
		Label:         *label,
		Source:        source,
	}
	if store != nil {
		dcfg.Recorder = store
	}
	session, err := drive.NewSession(dcfg)
	if err != nil {
		log.Fatalf("failed to create drive session: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sensor.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// steering filter and vehicle tick loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := session.Run(ctx, sensor); err != nil {
			log.Printf("drive session failed: %v", err)
		}
		log.Print("drive routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(api.Options{
			Sensor: sensor,
			DB:     store,
			Drive:  session,
			Config: cfg,
			Clock:  clock,
		}).ServeMux()

		sensor.AttachAdminRoutes(mux)
		if store != nil {
			store.AttachAdminRoutes(mux)
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("listening on %s", *listen)

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// openSensor picks the accelerometer backend from the flags and returns it
// with a short description stored as the session source.
func openSensor(cfg *config.TuningConfig) (serialmux.SerialMuxInterface, string, error) {
	rate := serialmux.RateForInterval(cfg.GetSampleInterval())

	switch {
	case *disableSensor:
		return serialmux.NewDisabledSerialMux(), "http", nil

	case *fixtures != "":
		lines, err := serialmux.LoadFixture(*fixtures)
		if err != nil {
			return nil, "", err
		}
		if len(lines) == 0 {
			return nil, "", fmt.Errorf("fixture %s has no sample lines", *fixtures)
		}
		m := serialmux.NewMockSerialMux(lines, cfg.GetSampleInterval())
		m.SetRate(rate)
		return m, "fixture:" + *fixtures, nil

	default:
		if _, err := os.Stat(*port); err != nil {
			return nil, "", fmt.Errorf("serial port %s: %w", *port, err)
		}
		opts := serialmux.PortOptions{
			BaudRate: *baudRate,
			DataBits: *dataBits,
			StopBits: *stopBits,
			Parity:   *parity,
		}
		m, err := serialmux.NewRealSerialMux(*port, opts)
		if err != nil {
			return nil, "", err
		}
		m.SetRate(rate)
		normalized, _ := opts.Normalize()
		return m, fmt.Sprintf("serial:%s %s", *port, normalized), nil
	}
}
