// Package worker holds the background consumers that move finished-exam
// records from the Redis queue into the durable PostgreSQL archive.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/config"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/repository"
)

const historyPollTimeout = time.Second

// historyPayload is the queue wire format.
type historyPayload struct {
	UserID   int        `json:"user_id"`
	Bank     model.Bank `json:"bank"`
	Score    int        `json:"score"`
	Duration int        `json:"duration"`
	TakenAt  int64      `json:"taken_at"` // ms epoch
}

// HistoryQueue is the producer side: the engine enqueues a record per
// finished exam. Queue failures are logged and dropped — the record also
// lives in the user's progress payload, the archive is a convenience copy.
type HistoryQueue struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewHistoryQueue(rdb *redis.Client, log zerolog.Logger) *HistoryQueue {
	return &HistoryQueue{
		rdb: rdb,
		log: log.With().Str("component", "history_queue").Logger(),
	}
}

// Enqueue pushes a finished-exam record onto the worker queue.
func (q *HistoryQueue) Enqueue(ctx context.Context, userID int, rec model.ExamRecord) {
	raw, err := json.Marshal(historyPayload{
		UserID:   userID,
		Bank:     rec.Bank,
		Score:    rec.Score,
		Duration: rec.Duration,
		TakenAt:  rec.Date,
	})
	if err != nil {
		q.log.Error().Err(err).Msg("marshal history payload")
		return
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistExamHistoryQueue, raw).Err(); err != nil {
		q.log.Warn().Err(err).Int("user_id", userID).Msg("enqueue failed, record not archived")
	}
}

// HistoryWorker consumes the queue and inserts rows into PostgreSQL.
type HistoryWorker struct {
	repo *repository.HistoryRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewHistoryWorker(repo *repository.HistoryRepository, rdb *redis.Client, log zerolog.Logger) *HistoryWorker {
	return &HistoryWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "history_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine; cancel ctx to stop.
// Remaining items are drained before exit.
func (w *HistoryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopping")
			w.drain(context.Background())
			w.log.Info().Msg("worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *HistoryWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, historyPollTimeout, config.WorkerKey.PersistExamHistoryQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var payload historyPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("invalid queue payload")
		return
	}

	if err := w.persist(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Int("user_id", payload.UserID).
			Msg("persist error, requeueing and backing off")
		w.rdb.RPush(ctx, config.WorkerKey.PersistExamHistoryQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *HistoryWorker) persist(ctx context.Context, p *historyPayload) error {
	return w.repo.Insert(ctx, p.UserID, p.Bank, p.Score, p.Duration, time.UnixMilli(p.TakenAt))
}

// drain processes all remaining items in the queue before shutdown.
func (w *HistoryWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistExamHistoryQueue).Result()
		if err != nil {
			break
		}

		var payload historyPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("drain unmarshal error")
			continue
		}

		if err := w.persist(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistExamHistoryQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("drained remaining items")
	}
}
