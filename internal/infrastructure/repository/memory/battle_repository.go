package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
)

type BattleRepository struct {
	mu    sync.RWMutex
	items map[battle.Key]battle.Battle
}

func NewBattleRepository() *BattleRepository {
	return &BattleRepository{items: make(map[battle.Key]battle.Battle)}
}

func (r *BattleRepository) Get(_ context.Context, key battle.Key) (battle.Battle, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[key]
	if !ok {
		return battle.Battle{}, false, nil
	}
	return cloneBattle(item), true, nil
}

func (r *BattleRepository) Upsert(_ context.Context, item battle.Battle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.Key()] = cloneBattle(item)
	return nil
}

func (r *BattleRepository) ListGlobalByMatch(_ context.Context, matchID string) ([]battle.Battle, error) {
	return r.filter(func(b battle.Battle) bool { return b.MatchID == matchID && b.IsGlobal() }), nil
}

func (r *BattleRepository) ListByRoom(_ context.Context, matchID, roomID string) ([]battle.Battle, error) {
	return r.filter(func(b battle.Battle) bool { return b.MatchID == matchID && b.RoomID == roomID }), nil
}

func (r *BattleRepository) ListRoomIDsByMatch(_ context.Context, matchID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for key := range r.items {
		if key.MatchID != matchID || key.RoomID == "" {
			continue
		}
		if _, ok := seen[key.RoomID]; ok {
			continue
		}
		seen[key.RoomID] = struct{}{}
		out = append(out, key.RoomID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *BattleRepository) CountChangedGlobal(_ context.Context, matchID, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.items {
		if item.MatchID == matchID && item.UserID == userID && item.IsGlobal() && item.Changed {
			count++
		}
	}
	return count, nil
}

func (r *BattleRepository) Resolve(_ context.Context, key battle.Key, points int, resolvedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[key]
	if !ok || item.Resolved {
		return false, nil
	}
	at := resolvedAt.UTC()
	item.Points = points
	item.Resolved = true
	item.ResolvedAt = &at
	r.items[key] = item
	return true, nil
}

func (r *BattleRepository) ApplyChange(_ context.Context, key battle.Key, player battle.SelectedPlayer, changedAt time.Time, maxChanges int) (battle.Battle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[key]
	if !ok {
		return battle.Battle{}, fmt.Errorf("%w: match=%s user=%s type=%s", battle.ErrPickNotFound, key.MatchID, key.UserID, key.Type)
	}
	if item.Changed {
		return battle.Battle{}, fmt.Errorf("%w: type=%s", battle.ErrAlreadyChanged, key.Type)
	}
	used := 0
	for _, other := range r.items {
		if other.MatchID == key.MatchID && other.UserID == key.UserID && other.IsGlobal() && other.Changed {
			used++
		}
	}
	if used >= maxChanges {
		return battle.Battle{}, fmt.Errorf("%w: used=%d allowed=%d", battle.ErrChangesExhausted, used, maxChanges)
	}

	at := changedAt.UTC()
	item.PreviousPlayerID = item.Player.PlayerID
	item.Player = player
	item.Changed = true
	item.ChangedAt = &at
	r.items[key] = item
	return cloneBattle(item), nil
}

func (r *BattleRepository) filter(keep func(battle.Battle) bool) []battle.Battle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]battle.Battle, 0)
	for _, item := range r.items {
		if keep(item) {
			out = append(out, cloneBattle(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func cloneBattle(b battle.Battle) battle.Battle {
	out := b
	if b.ResolvedAt != nil {
		v := *b.ResolvedAt
		out.ResolvedAt = &v
	}
	if b.ChangedAt != nil {
		v := *b.ChangedAt
		out.ChangedAt = &v
	}
	return out
}
