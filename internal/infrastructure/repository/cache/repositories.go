package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	basecache "github.com/riskibarqy/cricket-battle/internal/platform/cache"
)

// LeaderboardRepository caches board reads. Every write on a match drops the
// cached boards of that match.
type LeaderboardRepository struct {
	next  leaderboard.Repository
	cache *basecache.Store
}

func NewLeaderboardRepository(next leaderboard.Repository, cache *basecache.Store) *LeaderboardRepository {
	return &LeaderboardRepository{next: next, cache: cache}
}

func leaderboardPrefix(matchID string) string {
	return "leaderboard:" + matchID + ":"
}

func (r *LeaderboardRepository) Credit(ctx context.Context, credit leaderboard.Credit) (leaderboard.Entry, error) {
	entry, err := r.next.Credit(ctx, credit)
	r.cache.DeletePrefix(ctx, leaderboardPrefix(credit.MatchID))
	r.cache.DeletePrefix(ctx, "leaderboard-latest:")
	return entry, err
}

func (r *LeaderboardRepository) Get(ctx context.Context, matchID string, scope leaderboard.Scope, userID string) (leaderboard.Entry, bool, error) {
	return r.next.Get(ctx, matchID, scope, userID)
}

func (r *LeaderboardRepository) List(ctx context.Context, matchID string, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	key := leaderboardPrefix(matchID) + scope.String() + ":" + strconv.Itoa(limit)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, matchID, scope, limit)
		if err != nil {
			return nil, err
		}
		return append([]leaderboard.Entry(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]leaderboard.Entry)
	return append([]leaderboard.Entry(nil), items...), nil
}

func (r *LeaderboardRepository) ListRoomIDs(ctx context.Context, matchID string) ([]string, error) {
	return r.next.ListRoomIDs(ctx, matchID)
}

func (r *LeaderboardRepository) LatestMatchID(ctx context.Context, excludeMatchID string) (string, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "leaderboard-latest:"+excludeMatchID, func(ctx context.Context) (any, error) {
		matchID, exists, err := r.next.LatestMatchID(ctx, excludeMatchID)
		if err != nil {
			return nil, err
		}
		return cachedMatchID{value: matchID, exists: exists}, nil
	})
	if err != nil {
		return "", false, err
	}

	cached, _ := v.(cachedMatchID)
	return cached.value, cached.exists, nil
}

func (r *LeaderboardRepository) UpdateRanks(ctx context.Context, matchID string, scope leaderboard.Scope, ranks []leaderboard.RankPosition) error {
	err := r.next.UpdateRanks(ctx, matchID, scope, ranks)
	r.cache.DeletePrefix(ctx, leaderboardPrefix(matchID))
	return err
}

type cachedMatchID struct {
	value  string
	exists bool
}

// MatchRepository caches match lookups for the submission and read paths.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "match:id:"+matchID, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return cachedMatchByID{value: item.Clone(), exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchByID)
	return cached.value.Clone(), cached.exists, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	v, err := r.cache.GetOrLoad(ctx, "match:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return cloneMatches(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	return cloneMatches(items), nil
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, bool, error) {
	prev, existed, err := r.next.Upsert(ctx, item)
	r.invalidate(ctx, item.ID)
	return prev, existed, err
}

func (r *MatchRepository) SetPredictionLockTime(ctx context.Context, matchID string, lockAt time.Time) error {
	err := r.next.SetPredictionLockTime(ctx, matchID, lockAt)
	r.invalidate(ctx, matchID)
	return err
}

func (r *MatchRepository) invalidate(ctx context.Context, matchID string) {
	r.cache.Delete(ctx, "match:id:"+matchID)
	r.cache.Delete(ctx, "match:list")
}

type cachedMatchByID struct {
	value  match.Match
	exists bool
}

func cloneMatches(items []match.Match) []match.Match {
	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}
