package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
)

type PredictionRepository struct {
	mu    sync.RWMutex
	items map[string]prediction.Prediction
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{items: make(map[string]prediction.Prediction)}
}

func (r *PredictionRepository) Get(_ context.Context, matchID, userID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[predictionKey(matchID, userID)]
	if !ok {
		return prediction.Prediction{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *PredictionRepository) Upsert(_ context.Context, item prediction.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[predictionKey(item.MatchID, item.UserID)] = item.Clone()
	return nil
}

func (r *PredictionRepository) ListByMatch(_ context.Context, matchID string) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for _, item := range r.items {
		if item.MatchID == matchID {
			out = append(out, item.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *PredictionRepository) ListUnlockedUserIDs(_ context.Context, matchID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, item := range r.items {
		if item.MatchID == matchID && !item.Locked {
			out = append(out, item.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *PredictionRepository) ApplyOverResult(_ context.Context, result prediction.OverResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := predictionKey(result.MatchID, result.UserID)
	item, ok := r.items[key]
	if !ok {
		return false, nil
	}
	for i := range item.Overs {
		entry := &item.Overs[i]
		if entry.Over != result.Over {
			continue
		}
		if entry.Locked {
			return false, nil
		}
		actual := result.ActualRuns
		scoredAt := result.ScoredAt.UTC()
		entry.ActualRuns = &actual
		entry.Points = result.Points
		entry.Locked = true
		entry.ScoredAt = &scoredAt
		item.TotalPoints += result.Points
		item.UpdatedAt = scoredAt
		r.items[key] = item
		return true, nil
	}
	return false, nil
}

func predictionKey(matchID, userID string) string {
	return matchID + "::" + userID
}
