// Command pcmsim runs the cycle-driven PCM reconstruction/validation
// simulation core to completion against a scenario, streaming observation
// records to CSV and/or SQLite and exposing a tailsql/tsweb debug surface
// over the run database. Structured the way the teacher's cmd/radar/radar.go
// drives its serial-read loop and HTTP server concurrently under one
// sync.WaitGroup and a single signal.NotifyContext cancellation.
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

	"github.com/google/uuid"

	"github.com/banshee-data/pcmsim/internal/config"
	"github.com/banshee-data/pcmsim/internal/db"
	"github.com/banshee-data/pcmsim/internal/localization"
	"github.com/banshee-data/pcmsim/internal/monitoring"
	"github.com/banshee-data/pcmsim/internal/observation"
	"github.com/banshee-data/pcmsim/internal/scenario"
	"github.com/banshee-data/pcmsim/internal/scheduler"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

var (
	scenarioPath  = flag.String("scenario", "", "path to scenario JSON (built-in two-agent straight-road scenario if unset)")
	configPath    = flag.String("config", config.DefaultConfigPath, "path to JSON tuning configuration file")
	dbPath        = flag.String("db-path", "", "path to sqlite DB file for observation output (disabled if unset)")
	csvPath       = flag.String("csv-path", "", "path to CSV file for observation output (disabled if unset)")
	listen        = flag.String("listen", "", "HTTP listen address for the tailsql/tsweb debug surface (disabled if unset, requires -db-path)")
	maxTimeMsFlag = flag.Int64("max-sim-time-ms", 0, "override max_simulation_time_ms from the tuning config (0 keeps the config's value)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	code, err := run()
	if err != nil {
		log.Printf("pcmsim: %v", err)
	}
	os.Exit(exitStatus(code))
}

// exitStatus maps simerr.ExitCode onto the process exit status spec.md §6
// names: 0 Success, 1 InvalidConfig, 2 IncompleteScenario, 3 RuntimeError.
func exitStatus(code simerr.ExitCode) int {
	switch code {
	case simerr.Success:
		return 0
	case simerr.InvalidConfig:
		return 1
	case simerr.IncompleteScenario:
		return 2
	default:
		return 3
	}
}

func run() (simerr.ExitCode, error) {
	params, err := loadParams()
	if err != nil {
		return simerr.InvalidConfig, err
	}

	scn, err := loadScenario()
	if err != nil {
		return simerr.InvalidConfig, err
	}

	if *listen != "" && *dbPath == "" {
		return simerr.InvalidConfig, fmt.Errorf("-listen requires -db-path")
	}

	var database *db.DB
	if *dbPath != "" {
		var openErr error
		database, openErr = db.Open(*dbPath)
		if openErr != nil {
			return simerr.InvalidConfig, fmt.Errorf("open observation database %s: %w", *dbPath, openErr)
		}
		defer database.Close()
	}

	runID := uuid.NewString()
	if database != nil {
		if err := database.InsertRun(runID, *scenarioPath, params.GetSeed()); err != nil {
			return simerr.RuntimeError, fmt.Errorf("record run: %w", err)
		}
	}

	sink, closeSink, err := buildSink(database)
	if err != nil {
		return simerr.InvalidConfig, err
	}
	defer closeSink()

	engine := localization.NewEngine(params)
	world := worldstate.NewWorld(scn.Network, engine)

	sched := scheduler.NewScheduler(world, engine, params, sink, runID)
	for _, bp := range scn.Blueprints {
		sched.NextAgentID()
		sched.QueueSpawn(bp, scheduler.DefaultGraphBuilder(params))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if *listen != "" {
		mux := http.NewServeMux()
		if attachErr := database.AttachAdminRoutes(mux); attachErr != nil {
			return simerr.InvalidConfig, fmt.Errorf("attach admin routes: %w", attachErr)
		}

		server := &http.Server{Addr: *listen, Handler: mux}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("pcmsim: debug surface listening on %s", *listen)
			if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
				log.Printf("pcmsim: debug server error: %v", serveErr)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = server.Close()
		}()
	}

	log.Printf("pcmsim: run %s starting, cycle=%dms", runID, params.GetGlobalCycleTimeMs())
	code, runErr := sched.Run(ctx)
	log.Printf("pcmsim: run %s finished at t=%dms, exit=%s", runID, sched.TimeMS, code)

	wg.Wait()
	return code, runErr
}

func loadParams() (*config.SimParams, error) {
	params, err := config.LoadSimParams(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load tuning config from %s: %w", *configPath, err)
	}
	if *maxTimeMsFlag > 0 {
		params.MaxSimulationTimeMs = maxTimeMsFlag
	}
	return params, nil
}

func loadScenario() (*scenario.Scenario, error) {
	if *scenarioPath == "" {
		monitoring.Logf("pcmsim: no -scenario given, using built-in default scenario")
		return scenario.Default(), nil
	}
	return scenario.Load(*scenarioPath)
}

// buildSink wires CSV and/or SQLite observation sinks per the flags given,
// fanning out through MultiSink when both are set, falling back to
// NopSink when neither is. database is nil unless -db-path was given; its
// lifetime is owned by the caller, not by the returned closer. The
// returned closer flushes and closes every sink that was opened.
func buildSink(database *db.DB) (observation.Sink, func(), error) {
	var sinks []observation.Sink
	var closers []func() error

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return nil, nil, fmt.Errorf("create csv output %s: %w", *csvPath, err)
		}
		csvSink := observation.NewCSVSink(f)
		sinks = append(sinks, csvSink)
		closers = append(closers, csvSink.Close)
	}

	if database != nil {
		sqliteSink, err := observation.NewSQLiteSink(database)
		if err != nil {
			return nil, nil, fmt.Errorf("prepare sqlite sink: %w", err)
		}
		sinks = append(sinks, sqliteSink)
		closers = append(closers, sqliteSink.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("pcmsim: close sink: %v", err)
			}
		}
	}

	switch len(sinks) {
	case 0:
		return observation.NopSink{}, closeAll, nil
	case 1:
		return sinks[0], closeAll, nil
	default:
		return observation.NewMultiSink(sinks...), closeAll, nil
	}
}
