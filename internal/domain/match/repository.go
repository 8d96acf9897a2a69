package match

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	List(ctx context.Context) ([]Match, error)
	// Upsert writes the record keyed by match id and returns the stored
	// version that existed before the write, if any.
	Upsert(ctx context.Context, item Match) (Match, bool, error)
	SetPredictionLockTime(ctx context.Context, matchID string, lockAt time.Time) error
}
