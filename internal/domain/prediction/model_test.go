package prediction

import (
	"errors"
	"testing"
)

func TestScoreOver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		predicted int
		actual    int
		want      int
	}{
		{name: "exact", predicted: 5, actual: 5, want: 10},
		{name: "two under", predicted: 8, actual: 10, want: 8},
		{name: "two over", predicted: 12, actual: 10, want: 8},
		{name: "far off clamps to zero", predicted: 0, actual: 15, want: 0},
		{name: "exactly ten off", predicted: 0, actual: 10, want: 0},
		{name: "nine off", predicted: 1, actual: 10, want: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ScoreOver(tc.predicted, tc.actual); got != tc.want {
				t.Fatalf("unexpected points: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestPredictionValidate(t *testing.T) {
	t.Parallel()

	base := Prediction{
		MatchID: "m1",
		UserID:  "u1",
		Innings: 1,
		Overs: []OverForecast{
			{Over: 0, PredictedRuns: 6},
			{Over: 1, PredictedRuns: 8},
		},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := base.Clone()
	dup.Overs[1].Over = 0
	if err := dup.Validate(); !errors.Is(err, ErrDuplicateOver) {
		t.Fatalf("expected duplicate over error, got %v", err)
	}

	negative := base.Clone()
	negative.Overs[0].PredictedRuns = -1
	if err := negative.Validate(); !errors.Is(err, ErrNegativeRuns) {
		t.Fatalf("expected negative runs error, got %v", err)
	}

	innings := base.Clone()
	innings.Innings = 3
	if err := innings.Validate(); !errors.Is(err, ErrInvalidInnings) {
		t.Fatalf("expected innings error, got %v", err)
	}
}

func TestMergeForecastsKeepsScoredOvers(t *testing.T) {
	t.Parallel()

	actual := 9
	existing := []OverForecast{
		{Over: 0, PredictedRuns: 7, ActualRuns: &actual, Points: 8, Locked: true},
		{Over: 1, PredictedRuns: 4},
		{Over: 2, PredictedRuns: 5, ActualRuns: &actual, Points: 6, Locked: true},
	}
	incoming := []OverForecast{
		{Over: 0, PredictedRuns: 12},
		{Over: 1, PredictedRuns: 10},
		{Over: 3, PredictedRuns: 6},
	}

	merged := MergeForecasts(existing, incoming)
	if len(merged) != 4 {
		t.Fatalf("unexpected merged size: got=%d want=4", len(merged))
	}

	p := Prediction{Overs: merged}
	over0, _ := p.FindOver(0)
	if over0.PredictedRuns != 7 || !over0.Locked || over0.Points != 8 {
		t.Fatalf("scored over must not change: %+v", over0)
	}
	over1, _ := p.FindOver(1)
	if over1.PredictedRuns != 10 || over1.Locked {
		t.Fatalf("open over should take new forecast: %+v", over1)
	}
	if _, ok := p.FindOver(2); !ok {
		t.Fatalf("scored over missing from submission must be kept")
	}
	if _, ok := p.FindOver(3); !ok {
		t.Fatalf("new over should be added")
	}
}
