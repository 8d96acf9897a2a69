package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const defaultScoringWorkers = 8

type OverScoringResult struct {
	MatchID    string `json:"match_id"`
	Over       int    `json:"over"`
	ActualRuns int    `json:"actual_runs"`
	Considered int    `json:"considered"`
	Scored     int    `json:"scored"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	// Unscored is set when no run figure exists for the over; its entries
	// stay open.
	Unscored bool `json:"unscored,omitempty"`
}

type OverScoringService struct {
	predictionRepo prediction.Repository
	leaderboardSvc *LeaderboardService
	tx             TxRunner
	workers        int
	now            func() time.Time
	logger         *logging.Logger
}

func NewOverScoringService(
	predictionRepo prediction.Repository,
	leaderboardSvc *LeaderboardService,
	tx TxRunner,
	workers int,
	logger *logging.Logger,
) *OverScoringService {
	if logger == nil {
		logger = logging.Default()
	}
	if tx == nil {
		tx = NewDirectTxRunner()
	}
	if workers <= 0 {
		workers = defaultScoringWorkers
	}
	return &OverScoringService{
		predictionRepo: predictionRepo,
		leaderboardSvc: leaderboardSvc,
		tx:             tx,
		workers:        workers,
		now:            time.Now,
		logger:         logger,
	}
}

// ScoreOver scores one completed over for every prediction on the innings it
// was bowled in. Entries that are already locked are left alone, so the same
// before/after pair can be delivered any number of times.
func (s *OverScoringService) ScoreOver(ctx context.Context, before, after match.Match, over int) (OverScoringResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OverScoringService.ScoreOver",
		matchAttr(after.ID),
		attribute.Int("match.over", over),
	)
	defer span.End()

	result := OverScoringResult{MatchID: after.ID, Over: over}
	actual, ok := actualRunsForOver(before, after, over)
	if !ok {
		result.Unscored = true
		span.SetAttributes(attribute.Bool("scoring.unscored", true))
		s.logger.WarnContext(ctx, "no run figure for completed over, skip scoring",
			"match_id", after.ID,
			"over", over,
			"before_over", before.Innings.CurrentOver,
			"after_over", after.Innings.CurrentOver,
		)
		return result, nil
	}
	result.ActualRuns = actual

	items, err := s.predictionRepo.ListByMatch(ctx, after.ID)
	if err != nil {
		return result, fmt.Errorf("list predictions match=%s: %w", after.ID, err)
	}

	innings := inningsNumber(before)
	targets := make([]prediction.Prediction, 0, len(items))
	for _, item := range items {
		if item.Innings != innings {
			continue
		}
		entry, exists := item.FindOver(over)
		if !exists {
			continue
		}
		result.Considered++
		if entry.Locked {
			result.Skipped++
			continue
		}
		targets = append(targets, item)
	}
	if len(targets) == 0 {
		return result, nil
	}

	workerCount := s.workers
	if workerCount > len(targets) {
		workerCount = len(targets)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return result, fmt.Errorf("create scoring worker pool: %w", err)
	}
	defer pool.Release()

	var scored, skipped, failed atomic.Int32
	var workers sync.WaitGroup
	scoredAt := s.now().UTC()
	for _, item := range targets {
		item := item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			entry, _ := item.FindOver(over)
			applied, err := s.applyOver(ctx, prediction.OverResult{
				MatchID:    item.MatchID,
				UserID:     item.UserID,
				Over:       over,
				ActualRuns: actual,
				Points:     prediction.ScoreOver(entry.PredictedRuns, actual),
				ScoredAt:   scoredAt,
			})
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.ErrorContext(ctx, "score over failed",
					"match_id", item.MatchID,
					"user_id", item.UserID,
					"over", over,
					"error", err,
				)
			case applied:
				scored.Add(1)
			default:
				skipped.Add(1)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return result, fmt.Errorf("submit over scoring task: %w", err)
		}
	}
	workers.Wait()

	result.Scored = int(scored.Load())
	result.Skipped += int(skipped.Load())
	result.Failed = int(failed.Load())
	span.SetAttributes(attribute.Int("scoring.scored", result.Scored))

	s.logger.InfoContext(ctx, "over scored",
		"match_id", after.ID,
		"over", over,
		"actual_runs", actual,
		"scored", result.Scored,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	if result.Failed > 0 {
		return result, fmt.Errorf("score over match=%s over=%d: %d predictions failed", after.ID, over, result.Failed)
	}
	return result, nil
}

// applyOver locks the over entry and credits the leaderboard in one unit.
func (s *OverScoringService) applyOver(ctx context.Context, res prediction.OverResult) (bool, error) {
	var applied bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.predictionRepo.ApplyOverResult(ctx, res)
		if err != nil {
			return fmt.Errorf("apply over result: %w", err)
		}
		if !ok {
			return nil
		}
		if _, err := s.leaderboardSvc.Credit(ctx, res.MatchID, leaderboard.GlobalScope, res.UserID, res.Points, leaderboard.ContributionPrediction); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// actualRunsForOver prefers the per-over figure on the new snapshot. Without
// it, the cumulative run delta is used when exactly one over passed between
// the two snapshots. For a closed innings the delta runs to the final total
// on the scorecard; the new snapshot's figures belong to the next innings.
func actualRunsForOver(before, after match.Match, over int) (int, bool) {
	if sameInnings(before, after) {
		if runs, ok := after.Innings.RunsInOver(over); ok {
			return runs, true
		}
		if after.Innings.CurrentOver-before.Innings.CurrentOver != 1 {
			return 0, false
		}
		return runDelta(before.Innings.Runs, after.Innings.Runs), true
	}

	final, runs, ok := closedInnings(before, after)
	if !ok || final-before.Innings.CurrentOver != 1 {
		return 0, false
	}
	return runDelta(before.Innings.Runs, runs), true
}

func runDelta(before, after int) int {
	if after < before {
		return 0
	}
	return after - before
}
