package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

type QuizProgressInput struct {
	UserID  string
	QuizID  string
	Correct bool
}

type QuizProgressResult struct {
	Success       bool `json:"success"`
	PerfectDays   int  `json:"perfect_days"`
	CrownAwarded  bool `json:"crown_awarded"`
	TotalCrowns   int  `json:"total_crowns"`
	XP            int  `json:"xp"`
	CurrentStreak int  `json:"current_streak"`
}

type BattleProgressInput struct {
	UserID  string
	MatchID string
	Won     bool
}

type BattleProgressResult struct {
	Success      bool `json:"success"`
	Duplicate    bool `json:"duplicate"`
	MonthlyWins  int  `json:"monthly_wins"`
	CrownAwarded bool `json:"crown_awarded"`
	TotalCrowns  int  `json:"total_crowns"`
}

type MatchChampionResult struct {
	Success      bool   `json:"success"`
	Champion     string `json:"champion"`
	TotalPoints  int    `json:"total_points"`
	CrownAwarded bool   `json:"crown_awarded"`
}

type CrownService struct {
	userRepo       user.Repository
	matchRepo      match.Repository
	championLedger user.ChampionLedger
	leaderboardSvc *LeaderboardService
	notifier       Notifier
	now            func() time.Time
	logger         *logging.Logger
}

func NewCrownService(
	userRepo user.Repository,
	matchRepo match.Repository,
	championLedger user.ChampionLedger,
	leaderboardSvc *LeaderboardService,
	notifier Notifier,
	logger *logging.Logger,
) *CrownService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CrownService{
		userRepo:       userRepo,
		matchRepo:      matchRepo,
		championLedger: championLedger,
		leaderboardSvc: leaderboardSvc,
		notifier:       notifier,
		now:            time.Now,
		logger:         logger,
	}
}

// RecordQuizProgress counts an attempt and tracks distinct correct days of
// the month; each tenth day earns a crown up to the monthly cap.
func (s *CrownService) RecordQuizProgress(ctx context.Context, input QuizProgressInput) (QuizProgressResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CrownService.RecordQuizProgress", userAttr(input.UserID))
	defer span.End()

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return QuizProgressResult{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	at := s.now().UTC()
	var outcome user.QuizOutcome
	updated, err := s.userRepo.Update(ctx, userID, func(u *user.User) error {
		outcome = u.RecordQuizAnswer(input.Correct, at)
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return QuizProgressResult{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
		}
		return QuizProgressResult{}, fmt.Errorf("record quiz progress user=%s: %w", userID, err)
	}

	if outcome.CrownAwarded {
		s.notify(ctx, userID, notification.Message{
			Title: "Quiz Consistency Crown Earned!",
			Body:  fmt.Sprintf("You earned 1 crown for %d perfect quiz days this month!", outcome.PerfectDays),
			Type:  notification.TypeCrownEarned,
		})
		s.logger.InfoContext(ctx, "quiz crown awarded", "user_id", userID, "perfect_days", outcome.PerfectDays, "quiz_id", input.QuizID)
	}

	return QuizProgressResult{
		Success:       true,
		PerfectDays:   outcome.PerfectDays,
		CrownAwarded:  outcome.CrownAwarded,
		TotalCrowns:   updated.Crowns,
		XP:            updated.XP,
		CurrentStreak: updated.Quiz.CurrentStreak,
	}, nil
}

// RecordBattleProgress tracks a reported battle outcome; every tenth win of
// the month earns a crown up to the monthly cap.
func (s *CrownService) RecordBattleProgress(ctx context.Context, input BattleProgressInput) (BattleProgressResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CrownService.RecordBattleProgress", userAttr(input.UserID), matchAttr(input.MatchID))
	defer span.End()

	userID := strings.TrimSpace(input.UserID)
	matchID := strings.TrimSpace(input.MatchID)
	if userID == "" {
		return BattleProgressResult{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if matchID == "" {
		return BattleProgressResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	at := s.now().UTC()
	var outcome user.BattleOutcome
	updated, err := s.userRepo.Update(ctx, userID, func(u *user.User) error {
		outcome = u.RecordBattleResult(matchID, input.Won, at)
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return BattleProgressResult{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
		}
		return BattleProgressResult{}, fmt.Errorf("record battle progress user=%s: %w", userID, err)
	}

	if outcome.CrownAwarded {
		s.notify(ctx, userID, notification.Message{
			Title:   "Battle Consistency Crown Earned!",
			Body:    fmt.Sprintf("You earned 1 crown for winning %d battles this month!", outcome.MonthlyWins),
			Type:    notification.TypeCrownEarned,
			MatchID: matchID,
		})
		s.logger.InfoContext(ctx, "battle crown awarded", "user_id", userID, "monthly_wins", outcome.MonthlyWins)
	}

	return BattleProgressResult{
		Success:      true,
		Duplicate:    outcome.Duplicate,
		MonthlyWins:  outcome.MonthlyWins,
		CrownAwarded: outcome.CrownAwarded,
		TotalCrowns:  updated.Crowns,
	}, nil
}

// AssignMatchChampion crowns the owner of the top global leaderboard entry.
// The match id acts as idempotency key: a repeated call reports the existing
// champion without awarding again.
func (s *CrownService) AssignMatchChampion(ctx context.Context, callerID, matchID string) (MatchChampionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CrownService.AssignMatchChampion", userAttr(callerID), matchAttr(matchID))
	defer span.End()

	if strings.TrimSpace(callerID) == "" {
		return MatchChampionResult{}, fmt.Errorf("%w: caller is required", ErrUnauthorized)
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return MatchChampionResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return MatchChampionResult{}, fmt.Errorf("get match=%s: %w", matchID, err)
	}
	if !exists {
		return MatchChampionResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	top, found, err := s.leaderboardSvc.Top(ctx, item.ID)
	if err != nil {
		return MatchChampionResult{}, err
	}
	if !found {
		return MatchChampionResult{}, fmt.Errorf("%w: no leaderboard data for match=%s", ErrNotFound, matchID)
	}

	championID, created, err := s.championLedger.ClaimChampion(ctx, item.ID, top.UserID)
	if err != nil {
		return MatchChampionResult{}, fmt.Errorf("claim champion match=%s: %w", matchID, err)
	}
	if !created {
		return MatchChampionResult{Success: true, Champion: championID, TotalPoints: top.TotalPoints}, nil
	}

	if _, err := s.userRepo.Update(ctx, championID, func(u *user.User) error {
		u.AwardMatchChampion()
		return nil
	}); err != nil {
		if releaseErr := s.championLedger.ReleaseChampion(ctx, item.ID); releaseErr != nil {
			s.logger.ErrorContext(ctx, "release champion claim failed", "match_id", item.ID, "error", releaseErr)
		}
		if errors.Is(err, user.ErrNotFound) {
			return MatchChampionResult{}, fmt.Errorf("%w: champion user=%s", ErrNotFound, championID)
		}
		return MatchChampionResult{}, fmt.Errorf("award champion crown user=%s: %w", championID, err)
	}

	s.notify(ctx, championID, notification.Message{
		Title:   "You Are the Match Champion!",
		Body:    "You earned 1 crown for being the #1 scorer in this match!",
		Type:    notification.TypeCrownEarned,
		MatchID: item.ID,
	})
	s.logger.InfoContext(ctx, "match champion crowned", "match_id", item.ID, "user_id", championID, "total_points", top.TotalPoints)

	return MatchChampionResult{
		Success:      true,
		Champion:     championID,
		TotalPoints:  top.TotalPoints,
		CrownAwarded: true,
	}, nil
}

func (s *CrownService) notify(ctx context.Context, userID string, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, msg)
}
