package leaderboard

import "context"

type Repository interface {
	// Credit creates the entry or increments it in one atomic step.
	Credit(ctx context.Context, credit Credit) (Entry, error)
	Get(ctx context.Context, matchID string, scope Scope, userID string) (Entry, bool, error)
	// List returns entries ordered by total points, highest first. A limit of
	// zero returns every entry.
	List(ctx context.Context, matchID string, scope Scope, limit int) ([]Entry, error)
	ListRoomIDs(ctx context.Context, matchID string) ([]string, error)
	// LatestMatchID returns the match of the most recently created global
	// board, ignoring excludeMatchID.
	LatestMatchID(ctx context.Context, excludeMatchID string) (string, bool, error)
	UpdateRanks(ctx context.Context, matchID string, scope Scope, ranks []RankPosition) error
}
