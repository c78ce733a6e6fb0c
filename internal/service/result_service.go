package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
)

const (
	DefaultResultLimit = 20
	MaxResultLimit     = 100
	resultCacheTTL     = 30 * time.Second
)

// ResultLister reads recorded results back from the ledger.
type ResultLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.StoredResult, error)
}

// ResultService serves the recent results listing with a short Redis cache.
type ResultService struct {
	repo ResultLister
	rdb  redis.Cmdable
	log  zerolog.Logger
}

// NewResultService creates a new ResultService. A nil rdb disables caching.
func NewResultService(repo ResultLister, rdb redis.Cmdable, log zerolog.Logger) *ResultService {
	return &ResultService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "result_service").Logger(),
	}
}

// ClampLimit bounds a requested listing size.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultResultLimit
	}
	if limit > MaxResultLimit {
		return MaxResultLimit
	}
	return limit
}

// Recent returns up to limit results, newest first.
func (s *ResultService) Recent(ctx context.Context, limit int) ([]model.StoredResult, error) {
	limit = ClampLimit(limit)

	if cached, ok := s.fromCache(ctx, limit); ok {
		return cached, nil
	}

	results, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	if results == nil {
		results = []model.StoredResult{}
	}

	s.toCache(ctx, limit, results)
	return results, nil
}

func (s *ResultService) fromCache(ctx context.Context, limit int) ([]model.StoredResult, bool) {
	if s.rdb == nil {
		return nil, false
	}
	data, err := s.rdb.HGet(ctx, config.CacheKey.RecentResultsKey(), config.CacheKey.RecentResultsField(limit)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Result cache read failed")
		}
		return nil, false
	}

	var results []model.StoredResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (s *ResultService) toCache(ctx context.Context, limit int, results []model.StoredResult) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	key := config.CacheKey.RecentResultsKey()
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, config.CacheKey.RecentResultsField(limit), data)
	pipe.Expire(ctx, key, resultCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Result cache write failed")
	}
}
