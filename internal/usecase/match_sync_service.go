package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const jobPathMatchUpdated = "/v1/internal/triggers/match-updated"

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// MatchProvider is implemented by every external score feed client.
type MatchProvider interface {
	Name() ProviderKind
	FetchCurrentMatches(ctx context.Context) ([]ExternalMatch, error)
}

// MatchChangePublisher delivers a stored match change to the watcher.
type MatchChangePublisher interface {
	PublishMatchChange(ctx context.Context, change MatchChange) error
}

type MatchUpdateHandler interface {
	HandleMatchUpdate(ctx context.Context, change MatchChange) (WatchResult, error)
}

// InProcessChangePublisher hands changes straight to a handler in the same
// process.
type InProcessChangePublisher struct {
	handler MatchUpdateHandler
}

func NewInProcessChangePublisher(handler MatchUpdateHandler) *InProcessChangePublisher {
	return &InProcessChangePublisher{handler: handler}
}

func (p *InProcessChangePublisher) PublishMatchChange(ctx context.Context, change MatchChange) error {
	if p == nil || p.handler == nil {
		return nil
	}
	_, err := p.handler.HandleMatchUpdate(ctx, change)
	return err
}

// QueueChangePublisher enqueues changes for the match-updated trigger
// endpoint so they survive a crash between store and dispatch.
type QueueChangePublisher struct {
	queue JobQueue
}

func NewQueueChangePublisher(queue JobQueue) *QueueChangePublisher {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	return &QueueChangePublisher{queue: queue}
}

func (p *QueueChangePublisher) PublishMatchChange(ctx context.Context, change MatchChange) error {
	after := change.After
	dedupID := fmt.Sprintf("match-%s-%s-%d-%d", after.ID, strings.ToLower(string(after.Status)), inningsNumber(after), after.Innings.CurrentOver)
	dedupID = dedupUnsafeCharRegex.ReplaceAllString(dedupID, "_")
	return p.queue.Enqueue(ctx, jobPathMatchUpdated, change, 0, dedupID)
}

type MatchSyncResult struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Provider  string    `json:"provider"`
	Fetched   int       `json:"fetched"`
	Upserted  int       `json:"upserted"`
	Published int       `json:"published"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	SyncedAt  time.Time `json:"synced_at"`
}

// MatchSyncService polls the configured provider, normalizes and stores the
// current matches, and publishes every change that carries a transition.
type MatchSyncService struct {
	provider  MatchProvider
	matchRepo match.Repository
	publisher MatchChangePublisher
	now       func() time.Time
	logger    *logging.Logger
}

func NewMatchSyncService(provider MatchProvider, matchRepo match.Repository, publisher MatchChangePublisher, logger *logging.Logger) *MatchSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchSyncService{
		provider:  provider,
		matchRepo: matchRepo,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// SyncMatches runs one polling pass. Upstream failures are reported in the
// result and never returned, so a scheduler keeps ticking.
func (s *MatchSyncService) SyncMatches(ctx context.Context) (MatchSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchSyncService.SyncMatches")
	defer span.End()

	result := MatchSyncResult{SyncedAt: s.now().UTC()}
	if s.provider == nil {
		result.Error = "match provider is not configured"
		return result, nil
	}
	result.Provider = string(s.provider.Name())
	span.SetAttributes(attribute.String("match.provider", result.Provider))

	items, err := s.provider.FetchCurrentMatches(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "fetch current matches failed", "provider", result.Provider, "error", err)
		result.Error = err.Error()
		return result, nil
	}
	result.Fetched = len(items)

	for _, ext := range items {
		if strings.TrimSpace(ext.ExternalID) == "" {
			result.Skipped++
			continue
		}
		published, err := s.syncOne(ctx, ext)
		if err != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "sync match failed", "provider", result.Provider, "match_id", ext.ExternalID, "error", err)
			continue
		}
		result.Upserted++
		if published {
			result.Published++
		}
	}

	result.Success = true
	span.SetAttributes(
		attribute.Int("match.fetched", result.Fetched),
		attribute.Int("match.published", result.Published),
	)
	s.logger.InfoContext(ctx, "match sync completed",
		"provider", result.Provider,
		"fetched", result.Fetched,
		"upserted", result.Upserted,
		"published", result.Published,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *MatchSyncService) syncOne(ctx context.Context, ext ExternalMatch) (bool, error) {
	incoming := NormalizeExternalMatch(ext)
	stored, exists, err := s.matchRepo.GetByID(ctx, incoming.ID)
	if err != nil {
		return false, fmt.Errorf("get match=%s: %w", incoming.ID, err)
	}

	now := s.now().UTC()
	next := incoming
	if exists {
		next = MergeMatch(stored, incoming)
	} else {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	before, existed, err := s.matchRepo.Upsert(ctx, next)
	if err != nil {
		return false, fmt.Errorf("upsert match=%s: %w", next.ID, err)
	}
	if !existed {
		before = match.Match{ID: next.ID}
	}

	change := MatchChange{Before: before, After: next}
	if len(ClassifyTransition(change.Before, change.After)) == 0 || s.publisher == nil {
		return false, nil
	}
	if err := s.publisher.PublishMatchChange(ctx, change); err != nil {
		return false, fmt.Errorf("publish match change=%s: %w", next.ID, err)
	}
	return true, nil
}
