package prediction

import (
	"context"
	"time"
)

// OverResult is the outcome of scoring one over of one prediction.
type OverResult struct {
	MatchID    string
	UserID     string
	Over       int
	ActualRuns int
	Points     int
	ScoredAt   time.Time
}

type Repository interface {
	Get(ctx context.Context, matchID, userID string) (Prediction, bool, error)
	Upsert(ctx context.Context, item Prediction) error
	ListByMatch(ctx context.Context, matchID string) ([]Prediction, error)
	ListUnlockedUserIDs(ctx context.Context, matchID string) ([]string, error)
	// ApplyOverResult records the result on the matching over entry and adds
	// the points to the prediction total, atomically and only when the entry
	// exists and is not locked yet. It reports whether the write happened.
	ApplyOverResult(ctx context.Context, result OverResult) (bool, error)
}
