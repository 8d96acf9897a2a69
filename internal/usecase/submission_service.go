package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

type SubmitPredictionInput struct {
	UserID     string
	MatchID    string
	Innings    int
	WinnerPick string
	Overs      []prediction.OverForecast
}

type SubmitBattleInput struct {
	UserID   string
	MatchID  string
	RoomID   string
	Type     battle.Type
	PlayerID string
}

// SubmissionService accepts predictions and battle picks before their lock
// deadlines.
type SubmissionService struct {
	matchRepo      match.Repository
	predictionRepo prediction.Repository
	battleRepo     battle.Repository
	userRepo       user.Repository
	now            func() time.Time
	logger         *logging.Logger
}

func NewSubmissionService(
	matchRepo match.Repository,
	predictionRepo prediction.Repository,
	battleRepo battle.Repository,
	userRepo user.Repository,
	logger *logging.Logger,
) *SubmissionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SubmissionService{
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		battleRepo:     battleRepo,
		userRepo:       userRepo,
		now:            time.Now,
		logger:         logger,
	}
}

func (s *SubmissionService) SubmitPrediction(ctx context.Context, input SubmitPredictionInput) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.SubmitPrediction", userAttr(input.UserID), matchAttr(input.MatchID))
	defer span.End()

	item, err := s.openMatch(ctx, input.UserID, input.MatchID)
	if err != nil {
		return prediction.Prediction{}, err
	}

	now := s.now().UTC()
	if item.IsFinished() || now.After(item.PredictionDeadline()) {
		return prediction.Prediction{}, fmt.Errorf("%w: predictions for match=%s are locked", ErrRuleViolation, item.ID)
	}
	if winner := strings.TrimSpace(input.WinnerPick); winner != "" && winner != item.Team1.Name && winner != item.Team2.Name {
		return prediction.Prediction{}, fmt.Errorf("%w: winner pick must be one of the match teams", ErrInvalidInput)
	}

	innings := input.Innings
	if innings == 0 {
		innings = 1
	}
	next := prediction.Prediction{
		MatchID:    item.ID,
		UserID:     strings.TrimSpace(input.UserID),
		Innings:    innings,
		WinnerPick: strings.TrimSpace(input.WinnerPick),
		Overs:      input.Overs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, exists, err := s.predictionRepo.Get(ctx, item.ID, next.UserID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get prediction match=%s user=%s: %w", item.ID, next.UserID, err)
	}
	if exists {
		next.CreatedAt = existing.CreatedAt
		next.TotalPoints = existing.TotalPoints
		next.Locked = existing.Locked
		next.Overs = prediction.MergeForecasts(existing.Overs, input.Overs)
	}
	if err := next.Validate(); err != nil {
		return prediction.Prediction{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.predictionRepo.Upsert(ctx, next); err != nil {
		return prediction.Prediction{}, fmt.Errorf("upsert prediction match=%s user=%s: %w", item.ID, next.UserID, err)
	}
	s.trackParticipation(ctx, next.UserID, item.ID)
	return next, nil
}

func (s *SubmissionService) SubmitBattle(ctx context.Context, input SubmitBattleInput) (battle.Battle, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.SubmitBattle", userAttr(input.UserID), matchAttr(input.MatchID))
	defer span.End()

	item, err := s.openMatch(ctx, input.UserID, input.MatchID)
	if err != nil {
		return battle.Battle{}, err
	}

	now := s.now().UTC()
	if item.IsFinished() || now.After(item.BattleDeadline()) {
		return battle.Battle{}, fmt.Errorf("%w: %v", ErrRuleViolation, battle.ErrBattleLocked)
	}

	playerID := strings.TrimSpace(input.PlayerID)
	squadPlayer, ok := item.FindSquadPlayer(playerID)
	if !ok {
		return battle.Battle{}, fmt.Errorf("%w: %v: %s", ErrInvalidInput, battle.ErrPlayerNotInMatch, playerID)
	}

	next := battle.Battle{
		MatchID: item.ID,
		RoomID:  strings.TrimSpace(input.RoomID),
		UserID:  strings.TrimSpace(input.UserID),
		Type:    input.Type,
		Player: battle.SelectedPlayer{
			PlayerID: squadPlayer.PlayerID,
			Name:     squadPlayer.Name,
			Team:     teamOfPlayer(item, playerID),
		},
		SubmittedAt: now,
	}
	if err := next.Validate(); err != nil {
		return battle.Battle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.battleRepo.Upsert(ctx, next); err != nil {
		return battle.Battle{}, fmt.Errorf("upsert battle match=%s user=%s: %w", item.ID, next.UserID, err)
	}
	s.trackParticipation(ctx, next.UserID, item.ID)
	return next, nil
}

func (s *SubmissionService) openMatch(ctx context.Context, userID, matchID string) (match.Match, error) {
	if strings.TrimSpace(userID) == "" {
		return match.Match{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match=%s: %w", matchID, err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return item, nil
}

// trackParticipation keeps the user's previous-match reference current.
func (s *SubmissionService) trackParticipation(ctx context.Context, userID, matchID string) {
	_, err := s.userRepo.Update(ctx, userID, func(u *user.User) error {
		u.TrackMatch(matchID)
		return nil
	})
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		s.logger.WarnContext(ctx, "track match participation failed", "user_id", userID, "match_id", matchID, "error", err)
	}
}
