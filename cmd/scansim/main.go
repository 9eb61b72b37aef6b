// Command scansim runs a simulated cone-scanning LiDAR against an analytic
// scene: triggered scans are admitted against the point buffer's headroom,
// spread over scheduler ticks, and emitted as time-limited point records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ln6000/lidar-unity/internal/config"
	"github.com/ln6000/lidar-unity/internal/geom"
	"github.com/ln6000/lidar-unity/internal/monitor"
	"github.com/ln6000/lidar-unity/internal/scan"
	"github.com/ln6000/lidar-unity/internal/scanlog"
	"github.com/ln6000/lidar-unity/internal/sink"
	"github.com/ln6000/lidar-unity/internal/version"
)

var (
	listen      = flag.String("listen", ":8082", "HTTP listen address")
	dbFile      = flag.String("db", "scansim.db", "Path to the SQLite scan log database (empty to disable)")
	configFile  = flag.String("config", "", "Path to a JSON tuning config (optional)")
	sensorID    = flag.String("sensor-id", "scansim-0", "Sensor identifier for logs and records")
	tickRate    = flag.Int("tick-rate", 20, "Scheduler ticks per second")
	duration    = flag.Duration("duration", 0, "Run duration (0 = until interrupted)")
	seed        = flag.Int64("seed", 0, "Random seed for ray sampling (0 = time-based)")
	holdTrigger = flag.Bool("hold", true, "Simulate a continuously held scan trigger")
	scenePreset = flag.String("scene", "demo", "Scene preset: demo, ground, empty")
	freshEvery  = flag.Duration("fresh-every", 0, "Interval between simulated discrete trigger presses (0 = none)")
	logInterval = flag.Int("log-interval", 2, "Statistics logging interval in seconds")
)

func main() {
	flag.Parse()

	log.Printf("scansim %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}
	if *tickRate < 1 {
		log.Fatalf("tick rate must be >= 1, got %d", *tickRate)
	}

	tuning := config.EmptyTuningConfig()
	if *configFile != "" {
		loaded, err := config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		tuning = loaded
		log.Printf("Loaded tuning config from %s", *configFile)
	}

	scanCfg := scan.Config{
		SensorID:         *sensorID,
		ConeAngleDeg:     tuning.GetConeAngleDegrees(),
		MaxRange:         tuning.GetMaxRangeMeters(),
		PointsPerScan:    tuning.GetPointsPerScan(),
		RaysPerTick:      tuning.GetRaysPerTick(),
		MinScanInterval:  tuning.GetMinScanInterval(),
		ConcurrencyLimit: tuning.GetConcurrencyLimit(),
		PointLifetime:    tuning.GetPointLifetime(),
		FilterMask:       tuning.GetFilterMask(),
		PointSize:        tuning.GetPointSize(),
		PointColor:       sink.Color{R: 0x33, G: 0xcc, B: 0xff, A: 0xff},
	}

	// Size the point buffer from the worst-case emit rate and the point
	// lifetime unless the config pins an explicit capacity.
	capacity := tuning.GetSinkCapacity()
	if capacity == 0 {
		raysPerSecond := float64(scanCfg.RaysPerTick * *tickRate)
		capacity = sink.CapacityForRate(raysPerSecond, scanCfg.PointLifetime)
	}
	buffer, err := sink.NewBufferSink(capacity)
	if err != nil {
		log.Fatalf("Failed to create point buffer: %v", err)
	}
	log.Printf("Point buffer capacity: %d", capacity)

	var store *scanlog.Store
	if *dbFile != "" {
		store, err = scanlog.Open(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open scan log database: %v", err)
		}
		defer store.Close()
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	scene, err := buildScene(*scenePreset)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}

	stats := scan.NewStats()
	deps := scan.Deps{
		Oracle: scene,
		Sink:   buffer,
		Pose: geom.Pose{
			Origin: geom.Vec3{Y: 1.5},
			R:      geom.Identity(),
		},
		Rand:  rand.New(rand.NewSource(rngSeed)),
		Stats: stats,
	}
	if store != nil {
		deps.Recorder = store
	}

	scheduler, err := scan.NewScheduler(scanCfg, deps)
	if err != nil {
		log.Fatalf("Failed to create scan scheduler: %v", err)
	}

	history := monitor.NewHistory(600)
	server := monitor.NewWebServer(monitor.WebServerConfig{
		Address:  *listen,
		SensorID: *sensorID,
		Stats:    stats,
		Sink:     buffer,
		Store:    store,
		History:  history,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	// Scheduler tick loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		runTickLoop(ctx, scheduler, buffer, history)
		log.Print("Tick loop terminated")
	}()

	// Periodic statistics logging
	wg.Add(1)
	go func() {
		defer wg.Done()
		logStatsPeriodically(ctx, stats, buffer)
	}()

	// HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
		log.Print("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Print("Graceful shutdown complete")
}

// runTickLoop drives the scheduler at the configured tick rate, feeding it
// the simulated trigger signal each tick.
func runTickLoop(ctx context.Context, scheduler *scan.Scheduler, buffer *sink.BufferSink, history *monitor.History) {
	tickInterval := time.Second / time.Duration(*tickRate)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	sampleEvery := time.Second
	lastSample := time.Time{}
	lastFresh := time.Time{}

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			trig := scan.Trigger{Held: *holdTrigger}
			if *freshEvery > 0 && now.Sub(lastFresh) >= *freshEvery {
				trig.Fresh = true
				lastFresh = now
			}
			scheduler.HandleTrigger(now, trig)
			scheduler.Tick(now)

			if now.Sub(lastSample) >= sampleEvery {
				occ := buffer.Occupancy()
				history.Append(monitor.Sample{
					Time:           now,
					Occupancy:      occ.CurrentCount,
					Capacity:       occ.Capacity,
					ActiveSessions: scheduler.ActiveSessions(),
				})
				lastSample = now
			}
		}
	}
}

// logStatsPeriodically logs per-interval scan rates.
func logStatsPeriodically(ctx context.Context, stats *scan.Stats, buffer *sink.BufferSink) {
	ticker := time.NewTicker(time.Duration(*logInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, interval := stats.GetAndReset()
			if snap.RaysCast == 0 && snap.ScansStarted == 0 {
				continue
			}
			occ := buffer.Occupancy()
			raysPerSec := float64(snap.RaysCast) / interval.Seconds()
			msg := fmt.Sprintf("Scan stats (/sec): %.1f rays, %d scans started, %d completed, %d points emitted, occupancy %d/%d",
				raysPerSec, snap.ScansStarted, snap.ScansCompleted, snap.PointsEmitted, occ.CurrentCount, occ.Capacity)
			if rejected := snap.RejectedCapacity + snap.RejectedConcurrency; rejected > 0 {
				msg += fmt.Sprintf(", %d rejected (%d capacity, %d concurrency)",
					rejected, snap.RejectedCapacity, snap.RejectedConcurrency)
			}
			log.Print(msg)
		}
	}
}

// buildScene selects one of the built-in analytic scenes. "demo" is a
// ground plane with a few obstacles at varying depths; "ground" is the
// plane alone; "empty" makes every ray miss.
func buildScene(preset string) (*scan.Scene, error) {
	ground := scan.Plane{Point: geom.Vec3{}, Normal: geom.Vec3{Y: 1}, Mask: 0x1}
	switch preset {
	case "demo":
		return &scan.Scene{
			Planes: []scan.Plane{ground},
			Spheres: []scan.Sphere{
				{Center: geom.Vec3{X: -3, Y: 1, Z: 12}, Radius: 1.5, Mask: 0x2},
				{Center: geom.Vec3{X: 4, Y: 2, Z: 20}, Radius: 2.0, Mask: 0x2},
			},
			Boxes: []scan.Box{
				{Min: geom.Vec3{X: -1, Y: 0, Z: 29}, Max: geom.Vec3{X: 1, Y: 3, Z: 31}, Mask: 0x4},
			},
		}, nil
	case "ground":
		return &scan.Scene{Planes: []scan.Plane{ground}}, nil
	case "empty":
		return &scan.Scene{}, nil
	}
	return nil, fmt.Errorf("unknown scene preset %q (want demo, ground or empty)", preset)
}
