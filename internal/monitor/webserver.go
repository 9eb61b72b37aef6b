// Package monitor serves the simulator's read-only HTTP surface: health,
// scan statistics, recent session records and debug charts. Nothing here
// feeds back into the scan core.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ln6000/lidar-unity/internal/monitoring"
	"github.com/ln6000/lidar-unity/internal/scan"
	"github.com/ln6000/lidar-unity/internal/version"
	"github.com/ln6000/lidar-unity/internal/scanlog"
	"github.com/ln6000/lidar-unity/internal/sink"
)

// WebServer handles the HTTP interface for monitoring scan statistics.
type WebServer struct {
	address  string
	sensorID string
	stats    *scan.Stats
	sink     sink.PointSink
	store    *scanlog.Store
	history  *History
	server   *http.Server
}

// WebServerConfig contains configuration options for the web server. Store
// and History are optional; their endpoints report 404 when absent.
type WebServerConfig struct {
	Address  string
	SensorID string
	Stats    *scan.Stats
	Sink     sink.PointSink
	Store    *scanlog.Store
	History  *History
}

// NewWebServer creates a web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:  config.Address,
		sensorID: config.SensorID,
		stats:    config.Stats,
		sink:     config.Sink,
		store:    config.Store,
		history:  config.History,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// Start begins serving in a goroutine and blocks until ctx is cancelled,
// then shuts the server down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// Close shuts down the web server immediately.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/scan/stats", ws.handleStats)
	mux.HandleFunc("/api/scan/sessions", ws.handleSessions)
	mux.HandleFunc("/api/scan/summary", ws.handleSummary)
	mux.HandleFunc("/debug/occupancy", ws.handleOccupancyChart)
	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "scansim", "version": "%s", "timestamp": "%s"}`,
		version.Version, time.Now().UTC().Format(time.RFC3339))
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	var occ sink.Occupancy
	if ws.sink != nil {
		occ = ws.sink.Occupancy()
	}
	var snap scan.StatsSnapshot
	if ws.stats != nil {
		snap = ws.stats.Snapshot()
	}
	// Active session count comes from the latest tick-loop sample: the
	// scheduler itself is owned by the tick thread and not read directly.
	active := 0
	if ws.history != nil {
		if samples := ws.history.Samples(); len(samples) > 0 {
			active = samples[len(samples)-1].ActiveSessions
		}
	}
	resp := struct {
		SensorID       string             `json:"sensor_id"`
		Occupancy      sink.Occupancy     `json:"occupancy"`
		ActiveSessions int                `json:"active_sessions"`
		Counters       scan.StatsSnapshot `json:"counters"`
	}{ws.sensorID, occ, active, snap}
	ws.writeJSON(w, resp)
}

func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusNotFound, "scan log store not configured")
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}
	sessions, err := ws.store.ListRecent(ws.sensorID, limit)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ws.writeJSON(w, sessions)
}

func (ws *WebServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusNotFound, "scan log store not configured")
		return
	}
	summary, err := ws.store.Summarize(ws.sensorID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ws.writeJSON(w, summary)
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode JSON response: %v", err)
	}
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
