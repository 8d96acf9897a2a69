package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

func seedPredictions(t *testing.T, repo prediction.Repository, items ...prediction.Prediction) {
	t.Helper()
	for _, item := range items {
		if err := repo.Upsert(context.Background(), item); err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}
}

func TestOverScoringService_ScoreOver_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	predictionRepo := memory.NewPredictionRepository()
	boardRepo := memory.NewLeaderboardRepository()
	seedPredictions(t, predictionRepo,
		prediction.Prediction{MatchID: testMatchID, UserID: "u1", Innings: 1, Overs: []prediction.OverForecast{{Over: 4, PredictedRuns: 8}}},
		prediction.Prediction{MatchID: testMatchID, UserID: "u2", Innings: 1, Overs: []prediction.OverForecast{{Over: 4, PredictedRuns: 25}}},
		prediction.Prediction{MatchID: testMatchID, UserID: "u3", Innings: 1, Overs: []prediction.OverForecast{{Over: 5, PredictedRuns: 9}}},
		prediction.Prediction{MatchID: testMatchID, UserID: "u4", Innings: 2, Overs: []prediction.OverForecast{{Over: 4, PredictedRuns: 10}}},
	)

	service := NewOverScoringService(predictionRepo, NewLeaderboardService(boardRepo, logging.NewNop()), nil, 4, logging.NewNop())
	before := testMatch(match.StatusLive, 1, 4, 30)
	after := testMatch(match.StatusLive, 1, 5, 40)

	first, err := service.ScoreOver(ctx, before, after, 4)
	if err != nil {
		t.Fatalf("ScoreOver error: %v", err)
	}
	if first.ActualRuns != 10 || first.Considered != 2 || first.Scored != 2 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := service.ScoreOver(ctx, before, after, 4)
	if err != nil {
		t.Fatalf("ScoreOver replay error: %v", err)
	}
	if second.Scored != 0 || second.Skipped != 2 {
		t.Fatalf("replay must not rescore: %+v", second)
	}

	u1, _, _ := predictionRepo.Get(ctx, testMatchID, "u1")
	entry, _ := u1.FindOver(4)
	if !entry.Locked || entry.Points != 8 || entry.ActualRuns == nil || *entry.ActualRuns != 10 {
		t.Fatalf("unexpected scored entry: %+v", entry)
	}
	if u1.TotalPoints != 8 {
		t.Fatalf("unexpected prediction total: %d", u1.TotalPoints)
	}

	row, found, _ := boardRepo.Get(ctx, testMatchID, leaderboard.GlobalScope, "u1")
	if !found || row.TotalPoints != 8 || row.Predictions != 1 {
		t.Fatalf("unexpected leaderboard entry after replay: %+v", row)
	}
	u2, found, _ := boardRepo.Get(ctx, testMatchID, leaderboard.GlobalScope, "u2")
	if !found || u2.TotalPoints != 0 || u2.Predictions != 1 {
		t.Fatalf("a zero-point over still counts as a prediction: %+v", u2)
	}
	if _, found, _ := boardRepo.Get(ctx, testMatchID, leaderboard.GlobalScope, "u4"); found {
		t.Fatalf("second innings prediction must not be scored for first innings over")
	}
}

func TestOverScoringService_ScoreOver_PrefersPerOverFigure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	predictionRepo := memory.NewPredictionRepository()
	seedPredictions(t, predictionRepo,
		prediction.Prediction{MatchID: testMatchID, UserID: "u1", Innings: 1, Overs: []prediction.OverForecast{{Over: 4, PredictedRuns: 6}, {Over: 5, PredictedRuns: 12}}},
	)
	service := NewOverScoringService(predictionRepo, NewLeaderboardService(memory.NewLeaderboardRepository(), logging.NewNop()), nil, 2, logging.NewNop())

	before := testMatch(match.StatusLive, 1, 4, 30)
	after := testMatch(match.StatusLive, 1, 6, 52)
	after.Innings.OverRuns = map[int]int{4: 7, 5: 15}

	for _, over := range []int{4, 5} {
		if _, err := service.ScoreOver(ctx, before, after, over); err != nil {
			t.Fatalf("ScoreOver over=%d error: %v", over, err)
		}
	}

	got, _, _ := predictionRepo.Get(ctx, testMatchID, "u1")
	if got.TotalPoints != 9+7 {
		t.Fatalf("unexpected total: got=%d want=16", got.TotalPoints)
	}
}

func TestOverScoringService_ScoreOver_SkipsWithoutRunFigure(t *testing.T) {
	t.Parallel()

	predictionRepo := memory.NewPredictionRepository()
	seedPredictions(t, predictionRepo,
		prediction.Prediction{MatchID: testMatchID, UserID: "u1", Innings: 1, Overs: []prediction.OverForecast{{Over: 4, PredictedRuns: 6}}},
	)
	service := NewOverScoringService(predictionRepo, NewLeaderboardService(memory.NewLeaderboardRepository(), logging.NewNop()), nil, 2, logging.NewNop())

	got, err := service.ScoreOver(context.Background(), testMatch(match.StatusLive, 1, 4, 30), testMatch(match.StatusLive, 1, 7, 60), 4)
	if err != nil {
		t.Fatalf("ScoreOver error: %v", err)
	}
	if got.Scored != 0 || !got.Unscored {
		t.Fatalf("multi-over jump without per-over runs must not score: %+v", got)
	}
}

func TestOverScoringService_ScoreOver_ClosedInningsUsesScorecardTotal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	predictionRepo := memory.NewPredictionRepository()
	seedPredictions(t, predictionRepo,
		prediction.Prediction{MatchID: testMatchID, UserID: "u1", Innings: 1, Overs: []prediction.OverForecast{{Over: 19, PredictedRuns: 10}}},
		prediction.Prediction{MatchID: testMatchID, UserID: "u2", Innings: 2, Overs: []prediction.OverForecast{{Over: 19, PredictedRuns: 10}}},
	)
	service := NewOverScoringService(predictionRepo, NewLeaderboardService(memory.NewLeaderboardRepository(), logging.NewNop()), nil, 2, logging.NewNop())

	before := testMatch(match.StatusLive, 1, 19, 170)
	after := withScorecard(testMatch(match.StatusLive, 2, 0, 0), match.InningsScore{Team: "India", Runs: 181, Overs: 20})
	after.Innings.OverRuns = map[int]int{19: 2}

	got, err := service.ScoreOver(ctx, before, after, 19)
	if err != nil {
		t.Fatalf("ScoreOver error: %v", err)
	}
	if got.ActualRuns != 11 || got.Scored != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}

	u1, _, _ := predictionRepo.Get(ctx, testMatchID, "u1")
	entry, _ := u1.FindOver(19)
	if !entry.Locked || entry.Points != 9 {
		t.Fatalf("closing over must be scored: %+v", entry)
	}
	u2, _, _ := predictionRepo.Get(ctx, testMatchID, "u2")
	if entry, _ := u2.FindOver(19); entry.Locked {
		t.Fatalf("next innings prediction must stay open: %+v", entry)
	}
}
