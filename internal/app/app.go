package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/tsimlabs/egs/internal/adapters/bridge"
	"github.com/tsimlabs/egs/internal/adapters/datalogger"
	"github.com/tsimlabs/egs/internal/adapters/reporting"
	"github.com/tsimlabs/egs/internal/adapters/storage"
	webserver "github.com/tsimlabs/egs/internal/adapters/web/server"
	"github.com/tsimlabs/egs/internal/adapters/web/websocket"
	"github.com/tsimlabs/egs/internal/config"
	"github.com/tsimlabs/egs/internal/core/services/gateway"
	reportingService "github.com/tsimlabs/egs/internal/core/services/reporting"
	"github.com/tsimlabs/egs/internal/core/services/weather"
	"github.com/tsimlabs/egs/internal/core/services/zone"
	"github.com/tsimlabs/egs/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services
// and infrastructure.
type Application struct {
	Config       *config.Config
	Storage      *storage.SQLiteAdapter
	Gateway      *gateway.Pipeline
	Registry     *zone.Registry
	Tracker      *zone.StateTracker
	Asserter     *zone.Asserter
	Orchestrator *zone.Orchestrator
	Poller       *weather.Poller
	WebServer    *webserver.Server
	WSManager    *websocket.WSManager

	datalogger *datalogger.CR1000
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	store, err := app.initStorage()
	if err != nil {
		return err
	}
	app.Storage = store

	// 2. Bridge link & frame pipeline
	transport := bridge.New(app.Config.BridgeHost, app.Config.BridgePort, app.Config.DialTimeout)

	pipeCfg := gateway.DefaultConfig()
	pipeCfg.ACKTimeout = app.Config.ACKTimeout
	pipeCfg.MaxRetries = app.Config.MaxRetries
	pipeCfg.RetryPause = app.Config.RetryPause
	pipeCfg.MinSendInterval = app.Config.MinSendInterval
	pipeCfg.InterFrameGap = app.Config.InterFrameGap
	pipeCfg.QueueCapacity = app.Config.QueueCapacity
	pipeCfg.RequireACK = app.Config.RequireACK
	app.Gateway = gateway.New(transport, pipeCfg)

	// 3. Zone lifecycle services. The tracker and the websocket
	// manager reference each other, so the manager starts without a
	// source and gets it right after.
	app.WSManager = websocket.NewWSManager(nil)
	app.Tracker = zone.NewStateTracker(app.WSManager)
	app.WSManager.Source = app.Tracker
	app.Registry = zone.NewRegistry(nil)

	assertCfg := zone.DefaultAsserterConfig()
	assertCfg.Interval = app.Config.AssertInterval
	app.Asserter = zone.NewAsserter(assertCfg, app.Registry, app.Tracker, app.Gateway, nil)
	app.Orchestrator = zone.NewOrchestrator(zone.DefaultOrchestratorConfig(), app.Gateway, app.Registry, app.Tracker, store, nil)

	// 4. Weather ingest
	app.datalogger = datalogger.New(app.Config.WeatherPort, app.Config.WeatherBaud)
	app.Poller = weather.NewPoller(app.datalogger, store, app.Config.WeatherTable, app.Config.WeatherInterval, nil)

	// 5. Web surface
	generator := reportingService.NewEventReportGenerator(store, store, "EGS Control Plane")
	exporter := reporting.NewPDFExporter()
	app.WebServer = webserver.NewServer(app.Config.Addr, app.Gateway, store, app.Orchestrator, app.Tracker, app.Poller, generator, exporter, app.WSManager)

	return nil
}

func (app *Application) initStorage() (*storage.SQLiteAdapter, error) {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init system storage: %w", err)
	}
	return store, nil
}

// Run starts every background loop and blocks until ctx is cancelled
// and the web server has drained.
func (app *Application) Run(ctx context.Context) error {
	app.Gateway.Start(ctx)

	// A missing serial port is not fatal; the weather endpoints report
	// the link as down until it appears.
	if err := app.datalogger.Open(); err != nil {
		log.Printf("datalogger unavailable: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		app.Asserter.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.Poller.Run(ctx)
	}()

	err := app.WebServer.Run(ctx)

	wg.Wait()
	app.Close()
	return err
}

// Close releases the serial link and the database.
func (app *Application) Close() {
	if app.datalogger != nil {
		if err := app.datalogger.Close(); err != nil {
			log.Printf("datalogger close error: %v", err)
		}
	}
	if app.Storage != nil {
		if err := app.Storage.Close(); err != nil {
			log.Printf("storage close error: %v", err)
		}
	}
}
