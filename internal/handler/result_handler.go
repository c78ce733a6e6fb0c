package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

const (
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second
)

// ResultHandler serves the recorded results ledger. A nil service means
// results are disabled.
type ResultHandler struct {
	results *service.ResultService
	rdb     *redis.Client
	log     zerolog.Logger
}

func NewResultHandler(results *service.ResultService, rdb *redis.Client, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		rdb:     rdb,
		log:     log.With().Str("component", "result_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/results?limit=
func (h *ResultHandler) ListResults(c *gin.Context) {
	if h.results == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrResultsDisabled)
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"limit": "limit must be a number",
		})
		return
	}

	results, err := h.results.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list results")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"results": results,
		"limit":   service.ClampLimit(limit),
	})
}

// ResultsFeed godoc
// GET /api/v1/results/feed
// Sends a snapshot on connect and a fresh one whenever a batch is recorded.
func (h *ResultHandler) ResultsFeed(c *gin.Context) {
	if h.results == nil || h.rdb == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrResultsDisabled)
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		limit = service.DefaultResultLimit
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.ResultsChannel())
	defer pubsub.Close()
	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.sendSnapshot(c, reqCtx, limit)
	h.log.Info().Msg("Client attached to results feed")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Client detached from results feed")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.log.Debug().Str("recorded", msg.Payload).Msg("Results recorded")
			h.sendSnapshot(c, reqCtx, limit)

		case <-keepAliveTicker.C:
			c.SSEvent("ping", gin.H{"type": "ping"})
			c.Writer.Flush()
		}
	}
}

func (h *ResultHandler) sendSnapshot(c *gin.Context, parent context.Context, limit int) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	results, err := h.results.Recent(ctx, limit)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to refresh results feed")
		return
	}
	if results == nil {
		results = []model.StoredResult{}
	}

	c.SSEvent("message", gin.H{
		"type":    "snapshot",
		"results": results,
	})
	c.Writer.Flush()
}

// parseLimit reads an optional limit query value. Empty means the default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return service.DefaultResultLimit, nil
	}
	return strconv.Atoi(raw)
}
