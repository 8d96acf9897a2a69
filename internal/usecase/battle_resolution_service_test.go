package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

func finishedMatch() match.Match {
	item := testMatch(match.StatusFinished, 2, 20, 181)
	item.Performances = map[string]match.PlayerPerformance{
		"ind-bat": {PlayerID: "ind-bat", Runs: 30, Fours: 2, Sixes: 1},
		"aus-bat": {PlayerID: "aus-bat", Runs: 10},
	}
	return item
}

func TestBattleResolutionService_ResolveBattles_CreditsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	battleRepo := memory.NewBattleRepository()
	boardRepo := memory.NewLeaderboardRepository()
	userRepo := memory.NewUserRepository(user.User{ID: "u1"})
	notifier := &recordingNotifier{}
	queue := &recordingJobQueue{}

	picks := []battle.Battle{
		{MatchID: testMatchID, UserID: "u1", Type: battle.TypeBatterVsBatter, Player: battle.SelectedPlayer{PlayerID: "ind-bat"}},
		{MatchID: testMatchID, UserID: "u2", Type: battle.TypeBatterVsBatter, Player: battle.SelectedPlayer{PlayerID: "aus-bat"}},
		{MatchID: testMatchID, RoomID: "room-a", UserID: "u1", Type: battle.TypeBatterVsBatter, Player: battle.SelectedPlayer{PlayerID: "aus-bat"}},
	}
	for _, p := range picks {
		if err := battleRepo.Upsert(ctx, p); err != nil {
			t.Fatalf("seed battle: %v", err)
		}
	}

	service := NewBattleResolutionService(
		battleRepo,
		userRepo,
		NewLeaderboardService(boardRepo, logging.NewNop()),
		battle.NewPerformanceScorer(),
		notifier,
		queue,
		nil,
		2,
		logging.NewNop(),
	)

	got, err := service.ResolveBattles(ctx, finishedMatch())
	if err != nil {
		t.Fatalf("ResolveBattles error: %v", err)
	}
	if got.Resolved != 3 || got.Rooms != 1 || got.Failed != 0 {
		t.Fatalf("unexpected resolution result: %+v", got)
	}

	global, _, _ := boardRepo.Get(ctx, testMatchID, leaderboard.GlobalScope, "u1")
	if global.TotalPoints != 38 || global.Battles != 1 {
		t.Fatalf("unexpected global entry: %+v", global)
	}
	room, _, _ := boardRepo.Get(ctx, testMatchID, leaderboard.RoomScope("room-a"), "u1")
	if room.TotalPoints != 14 {
		t.Fatalf("unexpected room entry: %+v", room)
	}
	orphan, found, _ := boardRepo.Get(ctx, testMatchID, leaderboard.GlobalScope, "u2")
	if !found || orphan.TotalPoints != 14 {
		t.Fatalf("battle owner without profile still gets leaderboard credit: %+v", orphan)
	}

	profile, _, _ := userRepo.GetByID(ctx, "u1")
	if profile.Points != 38 || profile.XP != 38*user.BattleXPPerPoint {
		t.Fatalf("room battles must not touch the profile: %+v", profile)
	}

	sent := notifier.messages()
	if len(sent) != 1 || sent[0].msg.Type != notification.TypeBattleResult || len(sent[0].userIDs) != 2 {
		t.Fatalf("unexpected notifications: %+v", sent)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].path != jobPathRankLeaderboards || queue.jobs[0].dedupID != "rank-"+testMatchID {
		t.Fatalf("unexpected enqueued jobs: %+v", queue.jobs)
	}

	replay, err := service.ResolveBattles(ctx, finishedMatch())
	if err != nil {
		t.Fatalf("ResolveBattles replay error: %v", err)
	}
	if replay.Resolved != 0 || replay.Skipped != 3 {
		t.Fatalf("replay must skip resolved battles: %+v", replay)
	}
	again, _, _ := boardRepo.Get(ctx, testMatchID, leaderboard.GlobalScope, "u1")
	if again.TotalPoints != 38 {
		t.Fatalf("replay changed leaderboard: %+v", again)
	}
}

func TestBattleResolutionService_ResolveBattles_QueueFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	battleRepo := memory.NewBattleRepository()
	if err := battleRepo.Upsert(ctx, battle.Battle{MatchID: testMatchID, UserID: "u1", Type: battle.TypeBowlerVsBowler, Player: battle.SelectedPlayer{PlayerID: "outsider"}}); err != nil {
		t.Fatalf("seed battle: %v", err)
	}

	service := NewBattleResolutionService(
		battleRepo,
		memory.NewUserRepository(user.User{ID: "u1"}),
		NewLeaderboardService(memory.NewLeaderboardRepository(), logging.NewNop()),
		nil,
		nil,
		&recordingJobQueue{err: errors.New("qstash down")},
		nil,
		1,
		logging.NewNop(),
	)

	got, err := service.ResolveBattles(ctx, finishedMatch())
	if err != nil {
		t.Fatalf("ResolveBattles error: %v", err)
	}
	stored, _, _ := battleRepo.Get(ctx, battle.Key{MatchID: testMatchID, UserID: "u1", Type: battle.TypeBowlerVsBowler})
	if got.Resolved != 1 || !stored.Resolved || stored.Points != 0 {
		t.Fatalf("player outside both squads scores zero: result=%+v stored=%+v", got, stored)
	}
}
