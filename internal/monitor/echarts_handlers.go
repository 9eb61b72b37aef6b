package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleOccupancyChart renders a quick line chart (HTML) of sink occupancy
// and active session history using go-echarts. This is a debugging-only
// endpoint (no auth) to eyeball admission behaviour without a UI.
func (ws *WebServer) handleOccupancyChart(w http.ResponseWriter, r *http.Request) {
	if ws.history == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no history configured")
		return
	}
	samples := ws.history.Samples()
	if len(samples) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no samples recorded yet")
		return
	}

	times := make([]string, 0, len(samples))
	occupancy := make([]opts.LineData, 0, len(samples))
	capacity := make([]opts.LineData, 0, len(samples))
	active := make([]opts.LineData, 0, len(samples))
	for _, s := range samples {
		times = append(times, s.Time.Format("15:04:05"))
		occupancy = append(occupancy, opts.LineData{Value: s.Occupancy})
		capacity = append(capacity, opts.LineData{Value: s.Capacity})
		active = append(active, opts.LineData{Value: s.ActiveSessions})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Scan Occupancy",
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Point Sink Occupancy",
			Subtitle: fmt.Sprintf("sensor=%s samples=%d", ws.sensorID, len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "points"}),
	)
	line.SetXAxis(times).
		AddSeries("occupancy", occupancy).
		AddSeries("capacity", capacity).
		AddSeries("active sessions", active)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
