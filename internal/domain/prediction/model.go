package prediction

import (
	"errors"
	"fmt"
	"time"
)

// MaxOverPoints is awarded for an exact over forecast.
const MaxOverPoints = 10

var (
	ErrDuplicateOver  = errors.New("duplicate over in prediction")
	ErrNegativeRuns   = errors.New("predicted runs must not be negative")
	ErrInvalidInnings = errors.New("innings must be 1 or 2")
)

// OverForecast is one per-over forecast inside a prediction. Once Locked is
// true the entry has been scored and never changes again.
type OverForecast struct {
	Over          int
	PredictedRuns int
	ActualRuns    *int
	Points        int
	Locked        bool
	ScoredAt      *time.Time
}

// Prediction is a user's submission for one match.
type Prediction struct {
	MatchID     string
	UserID      string
	Innings     int
	WinnerPick  string
	Overs       []OverForecast
	TotalPoints int
	Locked      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScoreOver is max(0, 10 - |actual - predicted|).
func ScoreOver(predicted, actual int) int {
	diff := actual - predicted
	if diff < 0 {
		diff = -diff
	}
	points := MaxOverPoints - diff
	if points < 0 {
		return 0
	}
	return points
}

func (p Prediction) FindOver(over int) (OverForecast, bool) {
	for _, item := range p.Overs {
		if item.Over == over {
			return item, true
		}
	}
	return OverForecast{}, false
}

func (p Prediction) Validate() error {
	if p.MatchID == "" {
		return fmt.Errorf("prediction match id is required")
	}
	if p.UserID == "" {
		return fmt.Errorf("prediction user id is required")
	}
	if p.Innings != 1 && p.Innings != 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidInnings, p.Innings)
	}

	seen := make(map[int]struct{}, len(p.Overs))
	for _, item := range p.Overs {
		if item.Over < 0 {
			return fmt.Errorf("over number must not be negative: %d", item.Over)
		}
		if item.PredictedRuns < 0 {
			return fmt.Errorf("%w: over=%d", ErrNegativeRuns, item.Over)
		}
		if _, exists := seen[item.Over]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicateOver, item.Over)
		}
		seen[item.Over] = struct{}{}
	}
	return nil
}

// MergeForecasts applies new forecasts on top of existing ones while keeping
// entries that were already scored untouched.
func MergeForecasts(existing, incoming []OverForecast) []OverForecast {
	locked := make(map[int]OverForecast, len(existing))
	for _, item := range existing {
		if item.Locked {
			locked[item.Over] = item
		}
	}

	out := make([]OverForecast, 0, len(incoming)+len(locked))
	for _, item := range incoming {
		if prev, ok := locked[item.Over]; ok {
			out = append(out, prev)
			delete(locked, item.Over)
			continue
		}
		out = append(out, OverForecast{Over: item.Over, PredictedRuns: item.PredictedRuns})
	}
	for _, item := range existing {
		if _, ok := locked[item.Over]; ok {
			out = append(out, item)
		}
	}
	return out
}

func (p Prediction) Clone() Prediction {
	out := p
	out.Overs = make([]OverForecast, len(p.Overs))
	for i, item := range p.Overs {
		cp := item
		if item.ActualRuns != nil {
			v := *item.ActualRuns
			cp.ActualRuns = &v
		}
		if item.ScoredAt != nil {
			v := *item.ScoredAt
			cp.ScoredAt = &v
		}
		out.Overs[i] = cp
	}
	return out
}
