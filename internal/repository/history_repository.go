package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepv/driving-backend/internal/model"
)

// HistoryRepository persists the durable exam-history archive. Rows are
// append-only; nothing in the engine ever updates or deletes them.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Insert(ctx context.Context, userID int, bank model.Bank, score, duration int, takenAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_history (user_id, bank, score, duration_seconds, taken_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, bank, score, duration, takenAt)
	return err
}

// ListByUser returns a page of a user's archived exams, newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.ArchivedExamRecord, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_history WHERE user_id = $1`, userID).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, bank, score, duration_seconds, taken_at
		 FROM exam_history
		 WHERE user_id = $1
		 ORDER BY taken_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []model.ArchivedExamRecord
	for rows.Next() {
		var rec model.ArchivedExamRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Bank, &rec.Score, &rec.Duration, &rec.TakenAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
