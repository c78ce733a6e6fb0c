package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/repository"
	"github.com/stemsi/exstem-quiz/internal/service"
)

func TestToRows(t *testing.T) {
	id := uuid.New()
	finished := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	result := model.Result{
		SessionID:      id,
		Mode:           model.ModeExam,
		Score:          4,
		Total:          5,
		Percent:        80,
		ElapsedSeconds: 47,
		Reason:         model.FinishReasonTimeUp,
		FinishedAt:     finished,
	}

	batch := []service.ResultPayload{
		service.NewResultPayload(result),
		{SessionID: "not-a-uuid", Total: 5},
		{SessionID: uuid.NewString(), Total: 0},
	}

	rows, skipped := toRows(batch)
	if len(rows) != 1 || len(skipped) != 2 {
		t.Fatalf("rows = %d, skipped = %d, want 1 and 2", len(rows), len(skipped))
	}

	row := rows[0]
	if row.SessionID != id || row.Mode != model.ModeExam || row.Reason != model.FinishReasonTimeUp {
		t.Errorf("row = %+v", row)
	}
	if !row.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", row.FinishedAt, finished)
	}

	back := toPayload(row)
	if back != batch[0] {
		t.Errorf("toPayload(row) = %+v, want %+v", back, batch[0])
	}
}

type fakeStore struct {
	mu       sync.Mutex
	batchErr error
	failRow  uuid.UUID
	batches  int
	inserted []uuid.UUID
}

func (f *fakeStore) InsertBatch(_ context.Context, rows []repository.ResultRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	if f.batchErr != nil {
		return f.batchErr
	}
	for _, r := range rows {
		f.inserted = append(f.inserted, r.SessionID)
	}
	return nil
}

func (f *fakeStore) Insert(_ context.Context, row repository.ResultRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row.SessionID == f.failRow {
		return errors.New("constraint violation")
	}
	f.inserted = append(f.inserted, row.SessionID)
	return nil
}

// offlineRedis fails every command quickly, so cache invalidation and
// requeueing are logged and skipped.
func offlineRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func payload(id uuid.UUID) service.ResultPayload {
	return service.ResultPayload{
		SessionID:  id.String(),
		Mode:       string(model.ModeQuiz),
		Score:      1,
		Total:      2,
		Percent:    50,
		Reason:     string(model.FinishReasonSubmitted),
		FinishedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestFlushSafeBatch(t *testing.T) {
	store := &fakeStore{}
	w := NewResultWorker(store, offlineRedis(t), zerolog.Nop())

	a, b := uuid.New(), uuid.New()
	w.flushSafe(context.Background(), []service.ResultPayload{payload(a), {SessionID: "junk", Total: 1}, payload(b)})

	if store.batches != 1 {
		t.Fatalf("batches = %d, want 1", store.batches)
	}
	if len(store.inserted) != 2 || store.inserted[0] != a || store.inserted[1] != b {
		t.Errorf("inserted = %v, want [%s %s]", store.inserted, a, b)
	}
}

func TestFlushSafeFallsBackToSingleRows(t *testing.T) {
	a, bad, c := uuid.New(), uuid.New(), uuid.New()
	store := &fakeStore{batchErr: errors.New("deadlock detected"), failRow: bad}
	w := NewResultWorker(store, offlineRedis(t), zerolog.Nop())

	w.flushSafe(context.Background(), []service.ResultPayload{payload(a), payload(bad), payload(c)})

	if len(store.inserted) != 2 || store.inserted[0] != a || store.inserted[1] != c {
		t.Errorf("inserted = %v, want [%s %s]", store.inserted, a, c)
	}
}

func TestFlushSafeEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	w := NewResultWorker(store, offlineRedis(t), zerolog.Nop())

	w.flushSafe(context.Background(), nil)
	w.flushSafe(context.Background(), []service.ResultPayload{{SessionID: "junk"}})

	if store.batches != 0 {
		t.Errorf("batches = %d, want 0", store.batches)
	}
}
