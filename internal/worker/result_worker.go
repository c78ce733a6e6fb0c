package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/service"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore is the ledger the worker writes to.
type ResultStore interface {
	InsertBatch(ctx context.Context, rows []repository.ResultRow) error
	Insert(ctx context.Context, row repository.ResultRow) error
}

// ResultWorker drains the result queue into the ledger in batches.
type ResultWorker struct {
	store ResultStore
	rdb   redis.Cmdable
	log   zerolog.Logger
}

func NewResultWorker(store ResultStore, rdb redis.Cmdable, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]service.ResultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p service.ResultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, p)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []service.ResultPayload) {
	if len(batch) == 0 {
		return
	}

	rows, skipped := toRows(batch)
	for _, err := range skipped {
		w.log.Error().Err(err).Msg("Dropping malformed result payload")
	}
	if len(rows) == 0 {
		return
	}

	if err := w.store.InsertBatch(ctx, rows); err != nil {
		w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

		for _, row := range rows {
			if err := w.store.Insert(ctx, row); err != nil {
				w.log.Error().Err(err).Str("session_id", row.SessionID.String()).Msg("Insert failed, requeueing")
				raw, _ := json.Marshal(toPayload(row))
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
	}

	w.announce(ctx, len(rows))
}

// announce drops cached listings and tells listeners new rows landed.
func (w *ResultWorker) announce(ctx context.Context, n int) {
	pipe := w.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.RecentResultsKey())
	pipe.Publish(ctx, config.CacheKey.ResultsChannel(), strconv.Itoa(n))
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Failed to invalidate result cache")
	}
}

// toRows converts queue payloads, returning the ones that could not be parsed as errors.
func toRows(batch []service.ResultPayload) ([]repository.ResultRow, []error) {
	rows := make([]repository.ResultRow, 0, len(batch))
	var skipped []error

	for _, p := range batch {
		id, err := uuid.Parse(p.SessionID)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("session_id %q: %w", p.SessionID, err))
			continue
		}
		if p.Total <= 0 {
			skipped = append(skipped, fmt.Errorf("session %s: total must be positive", p.SessionID))
			continue
		}
		rows = append(rows, repository.ResultRow{
			SessionID:      id,
			Mode:           model.Mode(p.Mode),
			Score:          p.Score,
			Total:          p.Total,
			Percent:        p.Percent,
			ElapsedSeconds: p.ElapsedSeconds,
			Reason:         model.FinishReason(p.Reason),
			FinishedAt:     time.UnixMilli(p.FinishedAt).UTC(),
		})
	}
	return rows, skipped
}

func toPayload(row repository.ResultRow) service.ResultPayload {
	return service.ResultPayload{
		SessionID:      row.SessionID.String(),
		Mode:           string(row.Mode),
		Score:          row.Score,
		Total:          row.Total,
		Percent:        row.Percent,
		ElapsedSeconds: row.ElapsedSeconds,
		Reason:         string(row.Reason),
		FinishedAt:     row.FinishedAt.UnixMilli(),
	}
}
