package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

type BattleChangeCheckInput struct {
	UserID      string
	MatchID     string
	BattleType  battle.Type
	OldPlayerID string
}

type BattleChangeAllowance struct {
	Success          bool   `json:"success"`
	ChangesAllowed   int    `json:"changes_allowed"`
	ChangesUsed      int    `json:"changes_used"`
	ReferenceMatchID string `json:"reference_match_id"`
	ReferenceRank    int    `json:"reference_rank"`
}

type BattleChangeInput struct {
	UserID      string
	MatchID     string
	BattleType  battle.Type
	NewPlayerID string
}

type BattleChangeService struct {
	matchRepo       match.Repository
	battleRepo      battle.Repository
	leaderboardRepo leaderboard.Repository
	userRepo        user.Repository
	tx              TxRunner
	now             func() time.Time
	logger          *logging.Logger
}

func NewBattleChangeService(
	matchRepo match.Repository,
	battleRepo battle.Repository,
	leaderboardRepo leaderboard.Repository,
	userRepo user.Repository,
	tx TxRunner,
	logger *logging.Logger,
) *BattleChangeService {
	if logger == nil {
		logger = logging.Default()
	}
	if tx == nil {
		tx = NewDirectTxRunner()
	}
	return &BattleChangeService{
		matchRepo:       matchRepo,
		battleRepo:      battleRepo,
		leaderboardRepo: leaderboardRepo,
		userRepo:        userRepo,
		tx:              tx,
		now:             time.Now,
		logger:          logger,
	}
}

// CheckChangeAllowance validates a mid-match pick change. Changes are open
// only in the first innings of a live match and the allowance comes from the
// user's rank on the reference leaderboard.
func (s *BattleChangeService) CheckChangeAllowance(ctx context.Context, input BattleChangeCheckInput) (BattleChangeAllowance, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BattleChangeService.CheckChangeAllowance", userAttr(input.UserID), matchAttr(input.MatchID))
	defer span.End()

	userID := strings.TrimSpace(input.UserID)
	matchID := strings.TrimSpace(input.MatchID)
	if userID == "" {
		return BattleChangeAllowance{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if matchID == "" {
		return BattleChangeAllowance{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if input.BattleType != "" {
		if _, ok := battle.AllTypes[input.BattleType]; !ok {
			return BattleChangeAllowance{}, fmt.Errorf("%w: %v", ErrInvalidInput, battle.ErrUnknownType)
		}
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return BattleChangeAllowance{}, fmt.Errorf("get match=%s: %w", matchID, err)
	}
	if !exists {
		return BattleChangeAllowance{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if !item.IsLive() || inningsNumber(item) != 1 {
		return BattleChangeAllowance{}, fmt.Errorf("%w: %v", ErrRuleViolation, battle.ErrChangeWindowClosed)
	}

	refMatchID, rank, err := s.referenceRank(ctx, userID, matchID)
	if err != nil {
		return BattleChangeAllowance{}, err
	}

	allowed := battle.ChangesAllowedForRank(rank)
	used, err := s.battleRepo.CountChangedGlobal(ctx, matchID, userID)
	if err != nil {
		return BattleChangeAllowance{}, fmt.Errorf("count changed battles match=%s user=%s: %w", matchID, userID, err)
	}
	if used >= allowed {
		return BattleChangeAllowance{}, fmt.Errorf("%w: %v: you have exhausted your %d allowed changes", ErrRuleViolation, battle.ErrChangesExhausted, allowed)
	}

	return BattleChangeAllowance{
		Success:          true,
		ChangesAllowed:   allowed,
		ChangesUsed:      used,
		ReferenceMatchID: refMatchID,
		ReferenceRank:    rank,
	}, nil
}

// ChangePick checks the allowance and then swaps the player on the user's
// global battle of the given type.
func (s *BattleChangeService) ChangePick(ctx context.Context, input BattleChangeInput) (battle.Battle, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BattleChangeService.ChangePick", userAttr(input.UserID), matchAttr(input.MatchID))
	defer span.End()

	newPlayerID := strings.TrimSpace(input.NewPlayerID)
	if newPlayerID == "" {
		return battle.Battle{}, fmt.Errorf("%w: new player id is required", ErrInvalidInput)
	}

	key := battle.Key{MatchID: strings.TrimSpace(input.MatchID), UserID: strings.TrimSpace(input.UserID), Type: input.BattleType}
	current, exists, err := s.battleRepo.Get(ctx, key)
	if err != nil {
		return battle.Battle{}, fmt.Errorf("get battle pick: %w", err)
	}
	if !exists {
		return battle.Battle{}, fmt.Errorf("%w: battle pick match=%s type=%s", ErrNotFound, key.MatchID, key.Type)
	}
	if current.Player.PlayerID == newPlayerID {
		return battle.Battle{}, fmt.Errorf("%w: %v", ErrInvalidInput, battle.ErrSamePlayer)
	}
	if current.Changed {
		return battle.Battle{}, fmt.Errorf("%w: %v: %s", ErrRuleViolation, battle.ErrAlreadyChanged, key.Type)
	}

	allowance, err := s.CheckChangeAllowance(ctx, BattleChangeCheckInput{
		UserID:      key.UserID,
		MatchID:     key.MatchID,
		BattleType:  key.Type,
		OldPlayerID: current.Player.PlayerID,
	})
	if err != nil {
		return battle.Battle{}, err
	}

	item, _, err := s.matchRepo.GetByID(ctx, key.MatchID)
	if err != nil {
		return battle.Battle{}, fmt.Errorf("get match=%s: %w", key.MatchID, err)
	}
	squadPlayer, ok := item.FindSquadPlayer(newPlayerID)
	if !ok {
		return battle.Battle{}, fmt.Errorf("%w: %v: %s", ErrInvalidInput, battle.ErrPlayerNotInMatch, newPlayerID)
	}

	selected := battle.SelectedPlayer{
		PlayerID: squadPlayer.PlayerID,
		Name:     squadPlayer.Name,
		Team:     teamOfPlayer(item, newPlayerID),
	}
	// The allowance read above can be stale by now; the repository recounts
	// under its own lock before flipping the pick.
	var changed battle.Battle
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.battleRepo.ApplyChange(ctx, key, selected, s.now().UTC(), allowance.ChangesAllowed)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, battle.ErrChangesExhausted), errors.Is(err, battle.ErrAlreadyChanged):
		return battle.Battle{}, fmt.Errorf("%w: %v", ErrRuleViolation, err)
	case errors.Is(err, battle.ErrPickNotFound):
		return battle.Battle{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return battle.Battle{}, fmt.Errorf("apply battle change: %w", err)
	}

	s.logger.InfoContext(ctx, "battle pick changed",
		"match_id", key.MatchID,
		"user_id", key.UserID,
		"battle_type", key.Type,
		"previous_player_id", changed.PreviousPlayerID,
		"player_id", newPlayerID,
	)
	return changed, nil
}

// referenceRank resolves the rank that drives the change allowance. The
// user's stored previous match is used when present; otherwise the most
// recently created leaderboard of another match is the reference. Having no
// standing there means rank 0, which allows no changes.
func (s *BattleChangeService) referenceRank(ctx context.Context, userID, currentMatchID string) (string, int, error) {
	refMatchID := ""
	profile, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", 0, fmt.Errorf("get user=%s: %w", userID, err)
	}
	if exists && profile.PreviousMatchID != "" && profile.PreviousMatchID != currentMatchID {
		refMatchID = profile.PreviousMatchID
	}

	if refMatchID == "" {
		latest, found, err := s.leaderboardRepo.LatestMatchID(ctx, currentMatchID)
		if err != nil {
			return "", 0, fmt.Errorf("find latest leaderboard: %w", err)
		}
		if !found {
			return "", 0, fmt.Errorf("%w: %v", ErrRuleViolation, battle.ErrNoReferenceStanding)
		}
		refMatchID = latest
	}

	entry, found, err := s.leaderboardRepo.Get(ctx, refMatchID, leaderboard.GlobalScope, userID)
	if err != nil {
		return "", 0, fmt.Errorf("get reference standing match=%s user=%s: %w", refMatchID, userID, err)
	}
	if !found {
		return refMatchID, 0, nil
	}
	return refMatchID, entry.Rank, nil
}

func teamOfPlayer(item match.Match, playerID string) string {
	for _, p := range item.Squad1 {
		if p.PlayerID == playerID {
			return item.Team1.Name
		}
	}
	for _, p := range item.Squad2 {
		if p.PlayerID == playerID {
			return item.Team2.Name
		}
	}
	return ""
}
