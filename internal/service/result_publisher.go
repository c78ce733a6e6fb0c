package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// ResultPublisher hands a finished session's result to the ledger.
// Publishing never feeds back into a session.
type ResultPublisher interface {
	Publish(ctx context.Context, result model.Result) error
}

// NopResultPublisher drops results. It is used when the ledger is disabled.
type NopResultPublisher struct{}

func (NopResultPublisher) Publish(context.Context, model.Result) error { return nil }

// ResultPayload is the queue message consumed by the result worker.
type ResultPayload struct {
	SessionID      string  `json:"session_id"`
	Mode           string  `json:"mode"`
	Score          int     `json:"score"`
	Total          int     `json:"total"`
	Percent        float64 `json:"percent"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	Reason         string  `json:"reason"`
	FinishedAt     int64   `json:"finished_at"`
}

// NewResultPayload flattens a result for the queue. The review list stays behind.
func NewResultPayload(r model.Result) ResultPayload {
	return ResultPayload{
		SessionID:      r.SessionID.String(),
		Mode:           string(r.Mode),
		Score:          r.Score,
		Total:          r.Total,
		Percent:        r.Percent,
		ElapsedSeconds: r.ElapsedSeconds,
		Reason:         string(r.Reason),
		FinishedAt:     r.FinishedAt.UnixMilli(),
	}
}

// RedisResultPublisher pushes results onto the persist queue.
type RedisResultPublisher struct {
	rdb redis.Cmdable
}

// NewRedisResultPublisher creates a new RedisResultPublisher.
func NewRedisResultPublisher(rdb redis.Cmdable) *RedisResultPublisher {
	return &RedisResultPublisher{rdb: rdb}
}

func (p *RedisResultPublisher) Publish(ctx context.Context, result model.Result) error {
	raw, err := json.Marshal(NewResultPayload(result))
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := p.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue result: %w", err)
	}
	return nil
}
