package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/tsimlabs/egs/internal/adapters/reporting"
	"github.com/tsimlabs/egs/internal/adapters/web/handlers"
	"github.com/tsimlabs/egs/internal/adapters/web/websocket"
	"github.com/tsimlabs/egs/internal/core/ports"
	reportingService "github.com/tsimlabs/egs/internal/core/services/reporting"
	"github.com/tsimlabs/egs/internal/core/services/weather"
	"github.com/tsimlabs/egs/internal/core/services/zone"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	WSManager *websocket.WSManager

	GatewayHandler *handlers.GatewayHandler
	ZoneHandler    *handlers.ZoneHandler
	EventHandler   *handlers.EventHandler
	WeatherHandler *handlers.WeatherHandler
	ReportHandler  *handlers.ReportHandler
	srv            *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, gateway ports.Gateway, storage ports.Storage, orchestrator *zone.Orchestrator, tracker *zone.StateTracker, poller *weather.Poller, reportGenerator *reportingService.EventReportGenerator, pdfExporter *reporting.PDFExporter, wsManager *websocket.WSManager) *Server {
	return &Server{
		Addr:      addr,
		WSManager: wsManager,

		GatewayHandler: handlers.NewGatewayHandler(gateway, storage),
		ZoneHandler:    handlers.NewZoneHandler(orchestrator, tracker),
		EventHandler:   handlers.NewEventHandler(storage),
		WeatherHandler: handlers.NewWeatherHandler(poller, storage),
		ReportHandler:  handlers.NewReportHandler(reportGenerator, pdfExporter),
	}
}

// Run starts the server and the sync broadcaster.
func (s *Server) Run(ctx context.Context) error {
	// Start WS Manager
	s.WSManager.Start(ctx)

	// Setup Routes
	handler := SetupRoutes(s)

	// Instrument with OpenTelemetry
	// "egs-server" is the name of the operation (span)
	instrumentedHandler := otelhttp.NewHandler(handler, "egs-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
