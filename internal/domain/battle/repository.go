package battle

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, key Key) (Battle, bool, error)
	Upsert(ctx context.Context, item Battle) error
	ListGlobalByMatch(ctx context.Context, matchID string) ([]Battle, error)
	ListRoomIDsByMatch(ctx context.Context, matchID string) ([]string, error)
	ListByRoom(ctx context.Context, matchID, roomID string) ([]Battle, error)
	CountChangedGlobal(ctx context.Context, matchID, userID string) (int, error)
	// Resolve writes points on an unresolved battle and reports whether it did.
	Resolve(ctx context.Context, key Key, points int, resolvedAt time.Time) (bool, error)
	// ApplyChange swaps the player on an unchanged pick and sets the changed
	// flag. The user's global change count for the match is checked against
	// maxChanges in the same atomic step, so concurrent changes cannot
	// exceed it. Fails with ErrChangesExhausted, ErrAlreadyChanged or
	// ErrPickNotFound.
	ApplyChange(ctx context.Context, key Key, player SelectedPlayer, changedAt time.Time, maxChanges int) (Battle, error)
}
