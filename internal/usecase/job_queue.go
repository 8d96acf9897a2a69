package usecase

import (
	"context"
	"fmt"
	"time"
)

// JobQueue hands a payload to an HTTP job endpoint of this service, possibly
// after a delay. Deliveries are at-least-once.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type matchRanker interface {
	RankMatch(ctx context.Context, matchID string) (RankResult, error)
}

// LocalJobQueue runs queued ranking passes inline when no external queue is
// configured. Delays are ignored.
type LocalJobQueue struct {
	ranker matchRanker
}

func NewLocalJobQueue(ranker matchRanker) *LocalJobQueue {
	return &LocalJobQueue{ranker: ranker}
}

func (q *LocalJobQueue) Enqueue(ctx context.Context, path string, payload any, _ time.Duration, _ string) error {
	switch path {
	case jobPathRankLeaderboards:
		job, ok := payload.(rankJobPayload)
		if !ok {
			return fmt.Errorf("%w: unexpected rank job payload %T", ErrInvalidInput, payload)
		}
		_, err := q.ranker.RankMatch(ctx, job.MatchID)
		return err
	default:
		return fmt.Errorf("%w: local job queue cannot run %s", ErrInvalidInput, path)
	}
}
