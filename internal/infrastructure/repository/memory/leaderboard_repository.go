package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
)

type leaderboardKey struct {
	matchID string
	roomID  string
	userID  string
}

type LeaderboardRepository struct {
	mu    sync.RWMutex
	items map[leaderboardKey]leaderboard.Entry
}

func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{items: make(map[leaderboardKey]leaderboard.Entry)}
}

func (r *LeaderboardRepository) Credit(_ context.Context, credit leaderboard.Credit) (leaderboard.Entry, error) {
	if err := credit.Validate(); err != nil {
		return leaderboard.Entry{}, err
	}
	at := credit.At.UTC()
	if credit.At.IsZero() {
		at = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := leaderboardKey{matchID: credit.MatchID, roomID: credit.Scope.RoomID, userID: credit.UserID}
	entry, ok := r.items[key]
	if !ok {
		entry = leaderboard.Entry{
			MatchID:   credit.MatchID,
			Scope:     credit.Scope,
			UserID:    credit.UserID,
			CreatedAt: at,
		}
	}
	predictions, battles := credit.Counters()
	entry.TotalPoints += credit.Points
	entry.Predictions += predictions
	entry.Battles += battles
	entry.UpdatedAt = at
	r.items[key] = entry
	return entry, nil
}

func (r *LeaderboardRepository) Get(_ context.Context, matchID string, scope leaderboard.Scope, userID string) (leaderboard.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.items[leaderboardKey{matchID: matchID, roomID: scope.RoomID, userID: userID}]
	return entry, ok, nil
}

func (r *LeaderboardRepository) List(_ context.Context, matchID string, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	r.mu.RLock()
	out := make([]leaderboard.Entry, 0)
	for key, entry := range r.items {
		if key.matchID == matchID && key.roomID == scope.RoomID {
			out = append(out, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *LeaderboardRepository) ListRoomIDs(_ context.Context, matchID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for key := range r.items {
		if key.matchID != matchID || key.roomID == "" {
			continue
		}
		if _, ok := seen[key.roomID]; ok {
			continue
		}
		seen[key.roomID] = struct{}{}
		out = append(out, key.roomID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *LeaderboardRepository) LatestMatchID(_ context.Context, excludeMatchID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		latestID string
		latestAt time.Time
		found    bool
	)
	for key, entry := range r.items {
		if key.roomID != "" || key.matchID == excludeMatchID {
			continue
		}
		if !found || entry.CreatedAt.After(latestAt) || (entry.CreatedAt.Equal(latestAt) && key.matchID > latestID) {
			latestID = key.matchID
			latestAt = entry.CreatedAt
			found = true
		}
	}
	return latestID, found, nil
}

func (r *LeaderboardRepository) UpdateRanks(_ context.Context, matchID string, scope leaderboard.Scope, ranks []leaderboard.RankPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pos := range ranks {
		key := leaderboardKey{matchID: matchID, roomID: scope.RoomID, userID: pos.UserID}
		entry, ok := r.items[key]
		if !ok {
			return fmt.Errorf("leaderboard entry not found: match=%s scope=%s user=%s", matchID, scope, pos.UserID)
		}
		entry.Rank = pos.Rank
		r.items[key] = entry
	}
	return nil
}
