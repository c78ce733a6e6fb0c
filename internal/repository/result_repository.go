package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-quiz/internal/model"
)

// ResultRow is one finished session as written to the ledger.
type ResultRow struct {
	SessionID      uuid.UUID
	Mode           model.Mode
	Score          int
	Total          int
	Percent        float64
	ElapsedSeconds int
	Reason         model.FinishReason
	FinishedAt     time.Time
}

// ResultRepository handles result ledger data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// InsertBatch writes rows in one statement. Rows already recorded are skipped,
// so a requeued batch is harmless.
func (r *ResultRepository) InsertBatch(ctx context.Context, rows []ResultRow) error {
	if len(rows) == 0 {
		return nil
	}

	n := len(rows)
	sessionIDs := make([]uuid.UUID, 0, n)
	modes := make([]string, 0, n)
	scores := make([]int, 0, n)
	totals := make([]int, 0, n)
	percents := make([]float64, 0, n)
	elapsed := make([]int, 0, n)
	reasons := make([]string, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, row := range rows {
		sessionIDs = append(sessionIDs, row.SessionID)
		modes = append(modes, string(row.Mode))
		scores = append(scores, row.Score)
		totals = append(totals, row.Total)
		percents = append(percents, row.Percent)
		elapsed = append(elapsed, row.ElapsedSeconds)
		reasons = append(reasons, string(row.Reason))
		finishedAts = append(finishedAts, row.FinishedAt)
	}

	query := `
		INSERT INTO quiz_results (session_id, mode, score, total, percent, elapsed_seconds, reason, finished_at)
		SELECT * FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::int[],
			$4::int[],
			$5::float8[],
			$6::int[],
			$7::text[],
			$8::timestamptz[]
		)
		ON CONFLICT (session_id, finished_at) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, sessionIDs, modes, scores, totals, percents, elapsed, reasons, finishedAts)
	if err != nil {
		return fmt.Errorf("insert result batch: %w", err)
	}
	return nil
}

// Insert writes a single row.
func (r *ResultRepository) Insert(ctx context.Context, row ResultRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO quiz_results (session_id, mode, score, total, percent, elapsed_seconds, reason, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (session_id, finished_at) DO NOTHING`,
		row.SessionID, row.Mode, row.Score, row.Total, row.Percent, row.ElapsedSeconds, row.Reason, row.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// ListRecent returns the most recently finished results, newest first.
func (r *ResultRepository) ListRecent(ctx context.Context, limit int) ([]model.StoredResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, mode, score, total, percent::float8, elapsed_seconds, reason, finished_at, recorded_at
		 FROM quiz_results
		 ORDER BY finished_at DESC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := make([]model.StoredResult, 0, limit)
	for rows.Next() {
		var s model.StoredResult
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.Mode, &s.Score, &s.Total, &s.Percent,
			&s.ElapsedSeconds, &s.Reason, &s.FinishedAt, &s.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, s)
	}
	return results, rows.Err()
}
