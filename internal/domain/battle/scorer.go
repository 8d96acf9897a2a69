package battle

import "github.com/riskibarqy/cricket-battle/internal/domain/match"

// Scorer computes points for a battle pick from a finished match.
type Scorer interface {
	Score(item Battle, m match.Match) int
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(item Battle, m match.Match) int

func (f ScorerFunc) Score(item Battle, m match.Match) int {
	return f(item, m)
}

// PerformanceWeights are the point values used by PerformanceScorer.
type PerformanceWeights struct {
	Participation   int
	PerRun          int
	PerFour         int
	PerSix          int
	HalfCentury     int
	Century         int
	PerWicket       int
	ThreeWicketHaul int
	FiveWicketHaul  int
	PerMaiden       int
	PerCatch        int
}

func DefaultPerformanceWeights() PerformanceWeights {
	return PerformanceWeights{
		Participation:   4,
		PerRun:          1,
		PerFour:         1,
		PerSix:          2,
		HalfCentury:     8,
		Century:         16,
		PerWicket:       25,
		ThreeWicketHaul: 8,
		FiveWicketHaul:  16,
		PerMaiden:       12,
		PerCatch:        8,
	}
}

// PerformanceScorer rates a pick on the picked player's own statistics. It
// never looks at which side the player belongs to, so both teams are scored
// the same way. Players absent from both squads score zero.
type PerformanceScorer struct {
	Weights PerformanceWeights
}

func NewPerformanceScorer() PerformanceScorer {
	return PerformanceScorer{Weights: DefaultPerformanceWeights()}
}

func (s PerformanceScorer) Score(item Battle, m match.Match) int {
	playerID := item.Player.PlayerID
	if _, ok := m.FindSquadPlayer(playerID); !ok {
		return 0
	}

	w := s.Weights
	points := w.Participation
	perf, ok := m.Performances[playerID]
	if !ok {
		return points
	}

	switch item.Type {
	case TypeBatterVsBatter:
		points += s.batting(perf)
	case TypeBowlerVsBowler:
		points += s.bowling(perf)
	default:
		points += s.batting(perf) + s.bowling(perf)
	}
	points += perf.Catches * w.PerCatch
	return points
}

func (s PerformanceScorer) batting(perf match.PlayerPerformance) int {
	w := s.Weights
	points := perf.Runs*w.PerRun + perf.Fours*w.PerFour + perf.Sixes*w.PerSix
	switch {
	case perf.Runs >= 100:
		points += w.Century
	case perf.Runs >= 50:
		points += w.HalfCentury
	}
	return points
}

func (s PerformanceScorer) bowling(perf match.PlayerPerformance) int {
	w := s.Weights
	points := perf.Wickets*w.PerWicket + perf.Maidens*w.PerMaiden
	switch {
	case perf.Wickets >= 5:
		points += w.FiveWicketHaul
	case perf.Wickets >= 3:
		points += w.ThreeWicketHaul
	}
	return points
}
