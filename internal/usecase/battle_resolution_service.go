package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const jobPathRankLeaderboards = "/v1/internal/jobs/rank-leaderboards"

type BattleResolutionResult struct {
	MatchID  string       `json:"match_id"`
	Rooms    int          `json:"rooms"`
	Resolved int          `json:"resolved"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Notified NotifyResult `json:"notified"`
}

type rankJobPayload struct {
	MatchID string `json:"match_id"`
}

type BattleResolutionService struct {
	battleRepo     battle.Repository
	userRepo       user.Repository
	leaderboardSvc *LeaderboardService
	scorer         battle.Scorer
	notifier       Notifier
	queue          JobQueue
	tx             TxRunner
	workers        int
	now            func() time.Time
	logger         *logging.Logger
}

func NewBattleResolutionService(
	battleRepo battle.Repository,
	userRepo user.Repository,
	leaderboardSvc *LeaderboardService,
	scorer battle.Scorer,
	notifier Notifier,
	queue JobQueue,
	tx TxRunner,
	workers int,
	logger *logging.Logger,
) *BattleResolutionService {
	if logger == nil {
		logger = logging.Default()
	}
	if scorer == nil {
		scorer = battle.NewPerformanceScorer()
	}
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if tx == nil {
		tx = NewDirectTxRunner()
	}
	if workers <= 0 {
		workers = defaultScoringWorkers
	}
	return &BattleResolutionService{
		battleRepo:     battleRepo,
		userRepo:       userRepo,
		leaderboardSvc: leaderboardSvc,
		scorer:         scorer,
		notifier:       notifier,
		queue:          queue,
		tx:             tx,
		workers:        workers,
		now:            time.Now,
		logger:         logger,
	}
}

// ResolveBattles scores every global and private battle of a finished match.
// Battles that were already resolved are skipped.
func (s *BattleResolutionService) ResolveBattles(ctx context.Context, item match.Match) (BattleResolutionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BattleResolutionService.ResolveBattles", matchAttr(item.ID))
	defer span.End()

	result := BattleResolutionResult{MatchID: item.ID}
	if item.ID == "" {
		return result, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	globals, err := s.battleRepo.ListGlobalByMatch(ctx, item.ID)
	if err != nil {
		return result, fmt.Errorf("list global battles match=%s: %w", item.ID, err)
	}
	roomIDs, err := s.battleRepo.ListRoomIDsByMatch(ctx, item.ID)
	if err != nil {
		return result, fmt.Errorf("list battle rooms match=%s: %w", item.ID, err)
	}
	result.Rooms = len(roomIDs)

	all := make([]battle.Battle, 0, len(globals))
	all = append(all, globals...)
	for _, roomID := range roomIDs {
		items, err := s.battleRepo.ListByRoom(ctx, item.ID, roomID)
		if err != nil {
			return result, fmt.Errorf("list room battles match=%s room=%s: %w", item.ID, roomID, err)
		}
		all = append(all, items...)
	}

	if err := s.resolveAll(ctx, item, all, &result); err != nil {
		return result, err
	}

	participants := make([]string, 0, len(globals))
	for _, b := range globals {
		participants = append(participants, b.UserID)
	}
	if len(participants) > 0 && s.notifier != nil {
		result.Notified = s.notifier.NotifyBatch(ctx, participants, notification.Message{
			Title:   "Battle Results Ready",
			Body:    fmt.Sprintf("Check your battle results for %s vs %s", item.Team1.Name, item.Team2.Name),
			Type:    notification.TypeBattleResult,
			MatchID: item.ID,
		})
	}

	if err := s.queue.Enqueue(ctx, jobPathRankLeaderboards, rankJobPayload{MatchID: item.ID}, 0, "rank-"+item.ID); err != nil {
		s.logger.WarnContext(ctx, "enqueue leaderboard ranking failed", "match_id", item.ID, "error", err)
	}

	span.SetAttributes(attribute.Int("battle.resolved", result.Resolved))
	s.logger.InfoContext(ctx, "battles resolved",
		"match_id", item.ID,
		"rooms", result.Rooms,
		"resolved", result.Resolved,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	if result.Failed > 0 {
		return result, fmt.Errorf("resolve battles match=%s: %d battles failed", item.ID, result.Failed)
	}
	return result, nil
}

func (s *BattleResolutionService) resolveAll(ctx context.Context, item match.Match, battles []battle.Battle, result *BattleResolutionResult) error {
	pending := make([]battle.Battle, 0, len(battles))
	for _, b := range battles {
		if b.Resolved {
			result.Skipped++
			continue
		}
		pending = append(pending, b)
	}
	if len(pending) == 0 {
		return nil
	}

	workerCount := s.workers
	if workerCount > len(pending) {
		workerCount = len(pending)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return fmt.Errorf("create battle worker pool: %w", err)
	}
	defer pool.Release()

	var resolved, skipped, failed atomic.Int32
	var workers sync.WaitGroup
	resolvedAt := s.now().UTC()
	for _, b := range pending {
		b := b
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			applied, err := s.resolveOne(ctx, b, s.scorer.Score(b, item), resolvedAt)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.ErrorContext(ctx, "resolve battle failed",
					"match_id", b.MatchID,
					"room_id", b.RoomID,
					"user_id", b.UserID,
					"battle_type", b.Type,
					"error", err,
				)
			case applied:
				resolved.Add(1)
			default:
				skipped.Add(1)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return fmt.Errorf("submit battle resolution task: %w", err)
		}
	}
	workers.Wait()

	result.Resolved += int(resolved.Load())
	result.Skipped += int(skipped.Load())
	result.Failed += int(failed.Load())
	return nil
}

// resolveOne writes the points, then credits the user profile for global
// battles and the matching leaderboard scope, all in one unit.
func (s *BattleResolutionService) resolveOne(ctx context.Context, b battle.Battle, points int, resolvedAt time.Time) (bool, error) {
	var applied bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.battleRepo.Resolve(ctx, b.Key(), points, resolvedAt)
		if err != nil {
			return fmt.Errorf("mark battle resolved: %w", err)
		}
		if !ok {
			return nil
		}

		scope := leaderboard.RoomScope(b.RoomID)
		if b.IsGlobal() {
			scope = leaderboard.GlobalScope
			_, err := s.userRepo.Update(ctx, b.UserID, func(u *user.User) error {
				u.ApplyResolvedBattle(points)
				return nil
			})
			switch {
			case errors.Is(err, user.ErrNotFound):
				s.logger.WarnContext(ctx, "battle owner has no profile, skip stats credit", "user_id", b.UserID, "match_id", b.MatchID)
			case err != nil:
				return fmt.Errorf("credit user battle stats: %w", err)
			}
		}

		if _, err := s.leaderboardSvc.Credit(ctx, b.MatchID, scope, b.UserID, points, leaderboard.ContributionBattle); err != nil {
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
