package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/memory"
	notificationmock "github.com/riskibarqy/cricket-battle/internal/mocks/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestNotificationDispatcher_NotifyBatch_SkipsMissingTokensAndToleratesFailures(t *testing.T) {
	t.Parallel()

	userRepo := memory.NewUserRepository(
		user.User{ID: "u1", DeviceToken: "tok-1"},
		user.User{ID: "u2", DeviceToken: "tok-2"},
		user.User{ID: "u3", DeviceToken: "tok-3"},
		user.User{ID: "u4", DeviceToken: "tok-4"},
		user.User{ID: "u5"},
	)
	gateway := notificationmock.NewPushGateway(t)
	msg := notification.Message{
		Title:   "Battle Results Ready",
		Body:    "Check your battle results",
		Type:    notification.TypeBattleResult,
		MatchID: testMatchID,
	}
	gateway.On("Send", mock.Anything, "tok-1", msg).Return(nil).Once()
	gateway.On("Send", mock.Anything, "tok-2", msg).Return(nil).Once()
	gateway.On("Send", mock.Anything, "tok-3", msg).Return(errors.New("gateway timeout")).Once()
	gateway.On("Send", mock.Anything, "tok-4", msg).Return(nil).Once()

	dispatcher := NewNotificationDispatcher(userRepo, gateway, 3, logging.NewNop())
	got := dispatcher.NotifyBatch(context.Background(), []string{"u1", "u2", "u3", "u4", "u5", "u1"}, msg)

	if got.Recipients != 5 {
		t.Fatalf("duplicate recipients must collapse: %+v", got)
	}
	if got.Attempted != 4 || got.Delivered != 3 || got.Failed != 1 || got.Skipped != 1 {
		t.Fatalf("unexpected notify result: %+v", got)
	}
}

func TestNotificationDispatcher_NotifyBatch_RecoversGatewayPanic(t *testing.T) {
	t.Parallel()

	userRepo := memory.NewUserRepository(user.User{ID: "u1", DeviceToken: "tok-1"})
	gateway := notificationmock.NewPushGateway(t)
	gateway.On("Send", mock.Anything, "tok-1", mock.Anything).
		Return(func(context.Context, string, notification.Message) error { panic("boom") }).
		Once()

	dispatcher := NewNotificationDispatcher(userRepo, gateway, 1, logging.NewNop())
	got := dispatcher.Notify(context.Background(), "u1", notification.Message{Type: notification.TypeCrownEarned})
	if got.Failed != 1 || got.Delivered != 0 {
		t.Fatalf("panic must count as failure: %+v", got)
	}
}

func TestNotificationDispatcher_NotifyBatch_WithoutGatewaySkipsAll(t *testing.T) {
	t.Parallel()

	dispatcher := NewNotificationDispatcher(memory.NewUserRepository(), nil, 0, logging.NewNop())
	got := dispatcher.NotifyBatch(context.Background(), []string{"u1", "u2"}, notification.Message{})
	if got.Skipped != 2 || got.Attempted != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
}
