package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

func TestLeaderboardService_ConcurrentCreditsAreNotLost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := NewLeaderboardService(memory.NewLeaderboardRepository(), logging.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := leaderboard.ContributionPrediction
			if i%2 == 0 {
				kind = leaderboard.ContributionBattle
			}
			if _, err := service.Credit(ctx, testMatchID, leaderboard.GlobalScope, "u1", 2, kind); err != nil {
				t.Errorf("Credit error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	items, err := service.List(ctx, testMatchID, leaderboard.GlobalScope, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("entries: got=%d want=1", len(items))
	}
	got := items[0]
	if got.TotalPoints != 100 || got.Predictions != 25 || got.Battles != 25 || got.Rank != 0 {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestLeaderboardService_CreditRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	service := NewLeaderboardService(memory.NewLeaderboardRepository(), logging.NewNop())
	tests := []struct {
		name    string
		matchID string
		userID  string
		points  int
		kind    leaderboard.ContributionKind
	}{
		{name: "missing match", userID: "u1", points: 1, kind: leaderboard.ContributionBattle},
		{name: "missing user", matchID: testMatchID, points: 1, kind: leaderboard.ContributionBattle},
		{name: "negative points", matchID: testMatchID, userID: "u1", points: -1, kind: leaderboard.ContributionBattle},
		{name: "unknown kind", matchID: testMatchID, userID: "u1", points: 1, kind: "QUIZ"},
	}
	for _, tt := range tests {
		_, err := service.Credit(context.Background(), tt.matchID, leaderboard.GlobalScope, tt.userID, tt.points, tt.kind)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: got=%v want=%v", tt.name, err, ErrInvalidInput)
		}
	}
}

func TestLeaderboardService_RankMatchRanksEveryScope(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewLeaderboardRepository()
	service := NewLeaderboardService(repo, logging.NewNop())

	credits := []struct {
		scope  leaderboard.Scope
		userID string
		points int
	}{
		{leaderboard.GlobalScope, "a", 40},
		{leaderboard.GlobalScope, "b", 70},
		{leaderboard.GlobalScope, "c", 40},
		{leaderboard.RoomScope("r1"), "a", 5},
		{leaderboard.RoomScope("r1"), "c", 9},
	}
	for _, c := range credits {
		if _, err := service.Credit(ctx, testMatchID, c.scope, c.userID, c.points, leaderboard.ContributionBattle); err != nil {
			t.Fatalf("Credit error: %v", err)
		}
	}

	got, err := service.RankMatch(ctx, testMatchID)
	if err != nil {
		t.Fatalf("RankMatch error: %v", err)
	}
	if got.Scopes != 2 || got.Entries != 5 {
		t.Fatalf("unexpected result: %+v", got)
	}

	wantRanks := []struct {
		scope  leaderboard.Scope
		userID string
		rank   int
	}{
		{leaderboard.GlobalScope, "b", 1},
		{leaderboard.GlobalScope, "a", 2},
		{leaderboard.GlobalScope, "c", 2},
		{leaderboard.RoomScope("r1"), "c", 1},
		{leaderboard.RoomScope("r1"), "a", 2},
	}
	for _, w := range wantRanks {
		entry, found, err := repo.Get(ctx, testMatchID, w.scope, w.userID)
		if err != nil || !found {
			t.Fatalf("get %s/%s: found=%v err=%v", w.scope, w.userID, found, err)
		}
		if entry.Rank != w.rank {
			t.Fatalf("rank %s/%s: got=%d want=%d", w.scope, w.userID, entry.Rank, w.rank)
		}
	}

	top, found, err := service.Top(ctx, testMatchID)
	if err != nil || !found || top.UserID != "b" {
		t.Fatalf("unexpected top: %+v found=%v err=%v", top, found, err)
	}
}

func TestLeaderboardService_ListClampsLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := NewLeaderboardService(memory.NewLeaderboardRepository(), logging.NewNop())
	for _, userID := range []string{"a", "b", "c"} {
		if _, err := service.Credit(ctx, testMatchID, leaderboard.GlobalScope, userID, 1, leaderboard.ContributionPrediction); err != nil {
			t.Fatalf("Credit error: %v", err)
		}
	}

	items, err := service.List(ctx, testMatchID, leaderboard.GlobalScope, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("limited list: got=%d want=2", len(items))
	}
	if _, err := service.List(ctx, " ", leaderboard.GlobalScope, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank match id: got=%v want=%v", err, ErrInvalidInput)
	}
}
