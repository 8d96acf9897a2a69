package usecase

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const defaultNotifyConcurrency = 16

// Notifier sends push messages to users. Delivery problems never surface as
// errors; they are logged and counted.
type Notifier interface {
	Notify(ctx context.Context, userID string, msg notification.Message) NotifyResult
	NotifyBatch(ctx context.Context, userIDs []string, msg notification.Message) NotifyResult
}

type NotifyResult struct {
	Recipients int `json:"recipients"`
	Attempted  int `json:"attempted"`
	Delivered  int `json:"delivered"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

type NotificationDispatcher struct {
	userRepo    user.Repository
	gateway     notification.PushGateway
	concurrency int
	logger      *logging.Logger
}

func NewNotificationDispatcher(userRepo user.Repository, gateway notification.PushGateway, concurrency int, logger *logging.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if concurrency <= 0 {
		concurrency = defaultNotifyConcurrency
	}
	return &NotificationDispatcher{
		userRepo:    userRepo,
		gateway:     gateway,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (d *NotificationDispatcher) Notify(ctx context.Context, userID string, msg notification.Message) NotifyResult {
	return d.NotifyBatch(ctx, []string{userID}, msg)
}

// NotifyBatch waits for every recipient and tolerates individual failures.
func (d *NotificationDispatcher) NotifyBatch(ctx context.Context, userIDs []string, msg notification.Message) NotifyResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.NotificationDispatcher.NotifyBatch",
		attribute.String("notification.type", string(msg.Type)),
		attribute.Int("notification.recipients", len(userIDs)),
	)
	defer span.End()

	recipients := uniqueIDs(userIDs)
	result := NotifyResult{Recipients: len(recipients)}
	if len(recipients) == 0 || d.gateway == nil || d.userRepo == nil {
		result.Skipped = len(recipients)
		return result
	}

	var attempted, delivered, skipped, failed atomic.Int32
	p := pool.New().WithMaxGoroutines(d.concurrency)
	for _, userID := range recipients {
		userID := userID
		p.Go(func() {
			var catcher panics.Catcher
			catcher.Try(func() {
				sent, tried := d.deliver(ctx, userID, msg)
				switch {
				case !tried:
					skipped.Add(1)
				case sent:
					attempted.Add(1)
					delivered.Add(1)
				default:
					attempted.Add(1)
					failed.Add(1)
				}
			})
			if recovered := catcher.Recovered(); recovered != nil {
				failed.Add(1)
				d.logger.ErrorContext(ctx, "notification delivery panicked", "user_id", userID, "error", recovered.AsError())
			}
		})
	}
	p.Wait()

	result.Attempted = int(attempted.Load())
	result.Delivered = int(delivered.Load())
	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())
	span.SetAttributes(attribute.Int("notification.delivered", result.Delivered))
	return result
}

// deliver reports whether the message went out and whether a send was tried.
func (d *NotificationDispatcher) deliver(ctx context.Context, userID string, msg notification.Message) (bool, bool) {
	item, exists, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		d.logger.WarnContext(ctx, "lookup notification recipient failed", "user_id", userID, "error", err)
		return false, false
	}
	if !exists || strings.TrimSpace(item.DeviceToken) == "" {
		return false, false
	}

	if err := d.gateway.Send(ctx, item.DeviceToken, msg); err != nil {
		d.logger.WarnContext(ctx, "send notification failed",
			"user_id", userID,
			"type", msg.Type,
			"match_id", msg.MatchID,
			"error", err,
		)
		return false, true
	}
	return true, true
}

func uniqueIDs(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
