package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type PredictionLocker interface {
	LockPredictions(ctx context.Context, item match.Match) (PredictionLockResult, error)
}

type OverScorer interface {
	ScoreOver(ctx context.Context, before, after match.Match, over int) (OverScoringResult, error)
}

type BattleResolver interface {
	ResolveBattles(ctx context.Context, item match.Match) (BattleResolutionResult, error)
}

type WatchResult struct {
	MatchID     string           `json:"match_id"`
	Transitions []TransitionKind `json:"transitions"`
	OversScored []int            `json:"overs_scored"`
	// OversUnscored lists completed overs that had no run figure.
	OversUnscored []int `json:"overs_unscored,omitempty"`
	Failed        int   `json:"failed"`
}

// MatchWatcher turns match record changes into lock, scoring and resolution
// calls. Each handler is idempotent so redelivered changes are harmless.
type MatchWatcher struct {
	locker   PredictionLocker
	scorer   OverScorer
	resolver BattleResolver
	logger   *logging.Logger
}

func NewMatchWatcher(locker PredictionLocker, scorer OverScorer, resolver BattleResolver, logger *logging.Logger) *MatchWatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchWatcher{
		locker:   locker,
		scorer:   scorer,
		resolver: resolver,
		logger:   logger,
	}
}

// HandleMatchUpdate dispatches every transition of the change. A failing
// handler does not stop the others; the joined error lets the delivery be
// retried.
func (w *MatchWatcher) HandleMatchUpdate(ctx context.Context, change MatchChange) (WatchResult, error) {
	matchID := change.After.ID
	if matchID == "" {
		matchID = change.Before.ID
	}
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchWatcher.HandleMatchUpdate", matchAttr(matchID))
	defer span.End()

	result := WatchResult{MatchID: matchID}
	if matchID == "" {
		return result, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	transitions := ClassifyTransition(change.Before, change.After)
	span.SetAttributes(attribute.Int("match.transitions", len(transitions)))
	if len(transitions) == 0 {
		return result, nil
	}

	var errs []error
	for _, tr := range transitions {
		result.Transitions = append(result.Transitions, tr.Kind)
		if err := w.dispatch(ctx, change, tr, &result); err != nil {
			result.Failed++
			errs = append(errs, err)
			w.logger.ErrorContext(ctx, "match transition handler failed",
				"match_id", matchID,
				"transition", tr.Kind,
				"over", tr.Over,
				"error", err,
			)
		}
	}
	return result, errors.Join(errs...)
}

func (w *MatchWatcher) dispatch(ctx context.Context, change MatchChange, tr Transition, result *WatchResult) error {
	switch tr.Kind {
	case TransitionWentLive:
		if w.locker == nil {
			return nil
		}
		if _, err := w.locker.LockPredictions(ctx, change.After); err != nil {
			return fmt.Errorf("lock predictions: %w", err)
		}
	case TransitionOverCompleted:
		if w.scorer == nil {
			return nil
		}
		scored, err := w.scorer.ScoreOver(ctx, change.Before, change.After, tr.Over)
		if err != nil {
			return fmt.Errorf("score over %d: %w", tr.Over, err)
		}
		if scored.Unscored {
			result.OversUnscored = append(result.OversUnscored, tr.Over)
			return nil
		}
		result.OversScored = append(result.OversScored, tr.Over)
	case TransitionFinished:
		if w.resolver == nil {
			return nil
		}
		if _, err := w.resolver.ResolveBattles(ctx, change.After); err != nil {
			return fmt.Errorf("resolve battles: %w", err)
		}
	default:
		return fmt.Errorf("unknown transition %q", tr.Kind)
	}
	return nil
}
