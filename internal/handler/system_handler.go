package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/response"
)

const (
	metricsInterval = 7 * time.Second
	queueTimeout    = 2 * time.Second
)

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Count() int
}

// SystemHandler reports Go runtime and session metrics.
type SystemHandler struct {
	sessions  SessionCounter
	rdb       redis.Cmdable
	startTime time.Time
	now       func() time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. rdb may be nil when results are disabled.
func NewSystemHandler(sessions SessionCounter, rdb redis.Cmdable, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		sessions:  sessions,
		rdb:       rdb,
		startTime: time.Now(),
		now:       time.Now,
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// Sessions
	LiveSessions   int  `json:"live_sessions"`
	ResultsEnabled bool `json:"results_enabled"`

	// Worker Queue, -1 when unavailable
	QueueResults int64 `json:"queue_results"`
}

// SystemStatus godoc
// GET /api/v1/system/status
func (h *SystemHandler) SystemStatus(c *gin.Context) {
	response.Success(c, http.StatusOK, h.collect(c.Request.Context()))
}

// SystemMetricsSSE godoc
// GET /api/v1/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Debug().Msg("Client connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Msg("Client disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	c.SSEvent("message", h.collect(c.Request.Context()))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	now := h.now()
	m := systemMetrics{
		Timestamp:      now.Unix(),
		Uptime:         formatDuration(now.Sub(h.startTime)),
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		LiveSessions:   h.sessions.Count(),
		ResultsEnabled: h.rdb != nil,
		QueueResults:   -1,
	}

	// ── Go Runtime ──
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.HeapSys
	m.NumGC = ms.NumGC

	// ── Worker Queue ──
	if h.rdb != nil {
		qctx, cancel := context.WithTimeout(ctx, queueTimeout)
		defer cancel()
		if n, err := h.rdb.LLen(qctx, config.WorkerKey.PersistResultsQueue).Result(); err == nil {
			m.QueueResults = n
		} else {
			h.log.Warn().Err(err).Msg("Failed to read result queue depth")
		}
	}

	return m
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
