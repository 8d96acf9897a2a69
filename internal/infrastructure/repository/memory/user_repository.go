package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/cricket-battle/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUserRepository(users ...user.User) *UserRepository {
	items := make(map[string]user.User, len(users))
	for _, u := range users {
		items[u.ID] = u.Clone()
	}
	return &UserRepository{items: items}
}

func (r *UserRepository) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[userID]
	if !ok {
		return user.User{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *UserRepository) Upsert(_ context.Context, item user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item.Clone()
	return nil
}

func (r *UserRepository) Update(_ context.Context, userID string, fn func(*user.User) error) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[userID]
	if !ok {
		return user.User{}, fmt.Errorf("%w: %s", user.ErrNotFound, userID)
	}
	next := item.Clone()
	if err := fn(&next); err != nil {
		return user.User{}, err
	}
	r.items[userID] = next.Clone()
	return next, nil
}

// ChampionLedger keeps crowned match champions in memory.
type ChampionLedger struct {
	mu    sync.Mutex
	items map[string]string
}

func NewChampionLedger() *ChampionLedger {
	return &ChampionLedger{items: make(map[string]string)}
}

func (l *ChampionLedger) ClaimChampion(_ context.Context, matchID, userID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.items[matchID]; ok {
		return existing, false, nil
	}
	l.items[matchID] = userID
	return userID, true, nil
}

func (l *ChampionLedger) ReleaseChampion(_ context.Context, matchID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.items, matchID)
	return nil
}
