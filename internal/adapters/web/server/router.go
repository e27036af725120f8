package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tsimlabs/egs/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	// WebSocket endpoint for activation state sync
	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)

	api := r.PathPrefix("/api").Subrouter()

	// Manual frame control. Throttled so a stuck UI cannot fill the
	// command queue; the bridge only drains one frame a second.
	manualLimiter := middleware.NewRateLimiter(30, 1*time.Minute)
	throttled := middleware.RateLimit(manualLimiter)
	api.Handle("/lamp", throttled(http.HandlerFunc(s.GatewayHandler.HandleLamp))).Methods(http.MethodPost)
	api.Handle("/all", throttled(http.HandlerFunc(s.GatewayHandler.HandleAll))).Methods(http.MethodPost)
	api.Handle("/route", throttled(http.HandlerFunc(s.GatewayHandler.HandleRoute))).Methods(http.MethodPost)
	api.Handle("/mask", throttled(http.HandlerFunc(s.GatewayHandler.HandleMask))).Methods(http.MethodPost)
	api.Handle("/gateway/lamp-control", throttled(http.HandlerFunc(s.GatewayHandler.HandleLampControl))).Methods(http.MethodPost)

	api.HandleFunc("/health", s.GatewayHandler.HandleHealth).Methods(http.MethodGet)
	api.HandleFunc("/lamps", s.GatewayHandler.HandleLamps).Methods(http.MethodGet)
	api.HandleFunc("/lamps/{id:[0-9]+}", s.GatewayHandler.HandleLampByID).Methods(http.MethodGet)

	// Zone lifecycle
	api.HandleFunc("/zones", s.ZoneHandler.HandleZones).Methods(http.MethodGet)
	api.HandleFunc("/zones/activate", s.ZoneHandler.HandleActivate).Methods(http.MethodPost)
	api.HandleFunc("/zones/deactivate", s.ZoneHandler.HandleDeactivate).Methods(http.MethodPost)
	api.HandleFunc("/sync", s.ZoneHandler.HandleSync).Methods(http.MethodGet)

	// Emergency event journal. The activate/deactivate aliases drive
	// the full zone lifecycle, kept for the deployed frontend.
	api.HandleFunc("/emergency-events", s.EventHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/emergency-events", s.EventHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/emergency-events/active", s.EventHandler.HandleActive).Methods(http.MethodGet)
	api.HandleFunc("/emergency-events/{id:[0-9]+}/clear", s.EventHandler.HandleClear).Methods(http.MethodPut)
	api.HandleFunc("/emergency-events/activate", s.ZoneHandler.HandleActivate).Methods(http.MethodPost)
	api.HandleFunc("/emergency-events/deactivate", s.ZoneHandler.HandleDeactivate).Methods(http.MethodPost)

	// Weather telemetry
	api.HandleFunc("/weather/latest", s.WeatherHandler.HandleLatest).Methods(http.MethodGet)
	api.HandleFunc("/weather/recent", s.WeatherHandler.HandleRecent).Methods(http.MethodGet)
	api.HandleFunc("/weather/poll-now", s.WeatherHandler.HandlePollNow).Methods(http.MethodPost)
	api.HandleFunc("/health/weather", s.WeatherHandler.HandleHealth).Methods(http.MethodGet)

	// Reports
	api.HandleFunc("/reports/events", s.ReportHandler.HandleEventReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/events/pdf", s.ReportHandler.HandleEventReportPDF).Methods(http.MethodGet)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
