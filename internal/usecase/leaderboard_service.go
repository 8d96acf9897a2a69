package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

type LeaderboardService struct {
	repo   leaderboard.Repository
	now    func() time.Time
	logger *logging.Logger
}

func NewLeaderboardService(repo leaderboard.Repository, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// Credit adds points to a user's entry for a match scope, creating the entry
// on first credit. The increment is applied by the store in a single step so
// concurrent credits never lose updates.
func (s *LeaderboardService) Credit(ctx context.Context, matchID string, scope leaderboard.Scope, userID string, points int, kind leaderboard.ContributionKind) (leaderboard.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Credit",
		matchAttr(matchID),
		userAttr(userID),
		attribute.String("leaderboard.scope", scope.String()),
		attribute.Int("leaderboard.points", points),
	)
	defer span.End()

	credit := leaderboard.Credit{
		MatchID: strings.TrimSpace(matchID),
		Scope:   scope,
		UserID:  strings.TrimSpace(userID),
		Points:  points,
		Kind:    kind,
		At:      s.now().UTC(),
	}
	if err := credit.Validate(); err != nil {
		return leaderboard.Entry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	entry, err := s.repo.Credit(ctx, credit)
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("credit leaderboard match=%s scope=%s user=%s: %w", matchID, scope, userID, err)
	}
	return entry, nil
}

func (s *LeaderboardService) List(ctx context.Context, matchID string, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.List", matchAttr(matchID))
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = defaultLeaderboardLimit
	case limit > maxLeaderboardLimit:
		limit = maxLeaderboardLimit
	}

	items, err := s.repo.List(ctx, matchID, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard match=%s scope=%s: %w", matchID, scope, err)
	}
	return items, nil
}

// Top returns the entry with the most points on the global board.
func (s *LeaderboardService) Top(ctx context.Context, matchID string) (leaderboard.Entry, bool, error) {
	items, err := s.repo.List(ctx, matchID, leaderboard.GlobalScope, 1)
	if err != nil {
		return leaderboard.Entry{}, false, fmt.Errorf("read top of leaderboard match=%s: %w", matchID, err)
	}
	if len(items) == 0 {
		return leaderboard.Entry{}, false, nil
	}
	return items[0], true, nil
}

type RankResult struct {
	MatchID string `json:"match_id"`
	Scopes  int    `json:"scopes"`
	Entries int    `json:"entries"`
}

// RankMatch writes dense ranks on the global board and every room board of
// a match. It runs separately from crediting.
func (s *LeaderboardService) RankMatch(ctx context.Context, matchID string) (RankResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.RankMatch", matchAttr(matchID))
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return RankResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	roomIDs, err := s.repo.ListRoomIDs(ctx, matchID)
	if err != nil {
		return RankResult{}, fmt.Errorf("list leaderboard rooms match=%s: %w", matchID, err)
	}

	scopes := make([]leaderboard.Scope, 0, len(roomIDs)+1)
	scopes = append(scopes, leaderboard.GlobalScope)
	for _, roomID := range roomIDs {
		scopes = append(scopes, leaderboard.RoomScope(roomID))
	}

	result := RankResult{MatchID: matchID}
	for _, scope := range scopes {
		entries, err := s.repo.List(ctx, matchID, scope, 0)
		if err != nil {
			return RankResult{}, fmt.Errorf("list leaderboard for ranking match=%s scope=%s: %w", matchID, scope, err)
		}
		if len(entries) == 0 {
			continue
		}
		if err := s.repo.UpdateRanks(ctx, matchID, scope, leaderboard.DenseRanks(entries)); err != nil {
			return RankResult{}, fmt.Errorf("update ranks match=%s scope=%s: %w", matchID, scope, err)
		}
		result.Scopes++
		result.Entries += len(entries)
	}

	s.logger.InfoContext(ctx, "leaderboard ranked", "match_id", matchID, "scopes", result.Scopes, "entries", result.Entries)
	return result, nil
}
