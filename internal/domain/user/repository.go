package user

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, userID string) (User, bool, error)
	Upsert(ctx context.Context, item User) error
	// Update runs fn on the current record under a row lock and persists the
	// result. Returning an error from fn aborts the write. A missing user
	// yields ErrNotFound.
	Update(ctx context.Context, userID string, fn func(*User) error) (User, error)
}

// ChampionLedger remembers which matches already had a champion crowned.
type ChampionLedger interface {
	// ClaimChampion records the champion for a match and reports whether this
	// call created the record. An existing record is returned unchanged.
	ClaimChampion(ctx context.Context, matchID, userID string) (string, bool, error)
	ReleaseChampion(ctx context.Context, matchID string) error
}
