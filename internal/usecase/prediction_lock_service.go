package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

type PredictionLockResult struct {
	MatchID  string       `json:"match_id"`
	LockTime string       `json:"lock_time"`
	Notified NotifyResult `json:"notified"`
}

type PredictionLockService struct {
	matchRepo      match.Repository
	predictionRepo prediction.Repository
	notifier       Notifier
	logger         *logging.Logger
}

func NewPredictionLockService(matchRepo match.Repository, predictionRepo prediction.Repository, notifier Notifier, logger *logging.Logger) *PredictionLockService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionLockService{
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

// LockPredictions persists the prediction deadline (start time plus five
// minutes) and warns owners of still-open predictions.
func (s *PredictionLockService) LockPredictions(ctx context.Context, item match.Match) (PredictionLockResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionLockService.LockPredictions", matchAttr(item.ID))
	defer span.End()

	if item.ID == "" {
		return PredictionLockResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	lockAt := item.StartTime.UTC().Add(match.PredictionLockLead)
	if err := s.matchRepo.SetPredictionLockTime(ctx, item.ID, lockAt); err != nil {
		return PredictionLockResult{}, fmt.Errorf("set prediction lock time match=%s: %w", item.ID, err)
	}

	userIDs, err := s.predictionRepo.ListUnlockedUserIDs(ctx, item.ID)
	if err != nil {
		return PredictionLockResult{}, fmt.Errorf("list open predictions match=%s: %w", item.ID, err)
	}

	result := PredictionLockResult{
		MatchID:  item.ID,
		LockTime: lockAt.Format(time.RFC3339),
	}
	if len(userIDs) > 0 && s.notifier != nil {
		result.Notified = s.notifier.NotifyBatch(ctx, userIDs, notification.Message{
			Title:   "Prediction Closing Soon",
			Body:    fmt.Sprintf("Predictions for %s vs %s lock in 5 minutes.", item.Team1.Name, item.Team2.Name),
			Type:    notification.TypePredictionClosing,
			MatchID: item.ID,
		})
	}

	s.logger.InfoContext(ctx, "prediction lock applied",
		"match_id", item.ID,
		"lock_time", result.LockTime,
		"open_predictions", len(userIDs),
	)
	return result, nil
}
