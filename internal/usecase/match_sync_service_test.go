package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/memory"
	matchmock "github.com/riskibarqy/cricket-battle/internal/mocks/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type stubMatchProvider struct {
	items []ExternalMatch
	err   error
}

func (p *stubMatchProvider) Name() ProviderKind {
	return ProviderCricAPI
}

func (p *stubMatchProvider) FetchCurrentMatches(context.Context) ([]ExternalMatch, error) {
	return p.items, p.err
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []MatchChange
}

func (p *recordingPublisher) PublishMatchChange(_ context.Context, change MatchChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return nil
}

func externalLive(overs float64, runs int) ExternalMatch {
	return ExternalMatch{
		Provider:   ProviderCricAPI,
		ExternalID: testMatchID,
		Team1: ExternalTeam{Name: "India", Squad: []ExternalSquadPlayer{
			{PlayerID: "ind-bat", Name: "Rohit Sharma", Role: "Batsman"},
			{PlayerID: "ind-bowl", Name: "Jasprit Bumrah", Role: "Bowler"},
		}},
		Team2:     ExternalTeam{Name: "Australia"},
		Format:    "t20",
		Status:    "live",
		StartTime: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Current:   &ExternalInnings{Number: 1, Runs: runs, Overs: overs},
	}
}

func TestNormalizeExternalMatch_Defaults(t *testing.T) {
	t.Parallel()

	ext := externalLive(12.4, 101)
	got := NormalizeExternalMatch(ext)

	if got.SeriesName != "Unknown" || got.Venue != "TBD" || got.Format != match.FormatT20 || got.TossDecision != "BAT" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if got.Status != match.StatusLive || got.Innings.CurrentOver != 12 || got.Innings.CurrentBall != 2 {
		t.Fatalf("unexpected live snapshot: %+v", got.Innings)
	}
	if got.PredictionLockTime == nil || !got.PredictionLockTime.Equal(ext.StartTime.Add(5*time.Minute)) {
		t.Fatalf("unexpected prediction lock: %v", got.PredictionLockTime)
	}
	if got.BattlesLockTime == nil || !got.BattlesLockTime.Equal(ext.StartTime.Add(300*time.Second)) {
		t.Fatalf("unexpected battle lock: %v", got.BattlesLockTime)
	}
	if len(got.Squad1) != 2 || got.Squad1[0].Role != match.RoleBatter || got.Squad1[1].Role != match.RoleBowler {
		t.Fatalf("unexpected squad: %+v", got.Squad1)
	}
}

func TestMergeMatch_FillsSingleOverRuns(t *testing.T) {
	t.Parallel()

	stored := NormalizeExternalMatch(externalLive(4.5, 30))
	stored.Venue = "Wankhede"
	incoming := NormalizeExternalMatch(externalLive(5.1, 39))
	incoming.Squad1 = nil

	got := MergeMatch(stored, incoming)
	if runs, ok := got.Innings.RunsInOver(4); !ok || runs != 9 {
		t.Fatalf("completed over runs: got=%d ok=%v", runs, ok)
	}
	if got.Venue != "Wankhede" || len(got.Squad1) != 2 {
		t.Fatalf("stored values must survive an empty feed: %+v", got)
	}

	regressed := incoming
	regressed.Status = match.StatusScheduled
	stored.Status = match.StatusFinished
	if MergeMatch(stored, regressed).Status != match.StatusFinished {
		t.Fatalf("status must never move backwards")
	}
}

func TestMatchSyncService_SyncMatches_PublishesTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewMatchRepository()
	publisher := &recordingPublisher{}
	provider := &stubMatchProvider{items: []ExternalMatch{externalLive(4.5, 30)}}
	service := NewMatchSyncService(provider, repo, publisher, logging.NewNop())

	first, err := service.SyncMatches(ctx)
	if err != nil {
		t.Fatalf("SyncMatches error: %v", err)
	}
	if !first.Success || first.Upserted != 1 || first.Published != 1 {
		t.Fatalf("unexpected first sync: %+v", first)
	}

	provider.items = []ExternalMatch{externalLive(4.5, 30)}
	steady, err := service.SyncMatches(ctx)
	if err != nil {
		t.Fatalf("SyncMatches steady error: %v", err)
	}
	if steady.Published != 0 {
		t.Fatalf("unchanged match must not publish: %+v", steady)
	}

	provider.items = []ExternalMatch{externalLive(5.0, 41)}
	next, err := service.SyncMatches(ctx)
	if err != nil {
		t.Fatalf("SyncMatches next error: %v", err)
	}
	if next.Published != 1 {
		t.Fatalf("over completion must publish: %+v", next)
	}

	last := publisher.changes[len(publisher.changes)-1]
	transitions := ClassifyTransition(last.Before, last.After)
	if len(transitions) != 1 || transitions[0].Kind != TransitionOverCompleted || transitions[0].Over != 4 {
		t.Fatalf("unexpected published transitions: %+v", transitions)
	}
	if runs, _ := last.After.Innings.RunsInOver(4); runs != 11 {
		t.Fatalf("unexpected filled over runs: %d", runs)
	}
}

func TestMatchSyncService_SyncMatches_UpstreamFailureIsReported(t *testing.T) {
	t.Parallel()

	repo := matchmock.NewRepository(t)
	provider := &stubMatchProvider{err: errors.New("upstream 503")}
	service := NewMatchSyncService(provider, repo, nil, logging.NewNop())

	got, err := service.SyncMatches(context.Background())
	if err != nil {
		t.Fatalf("upstream failure must not be returned: %v", err)
	}
	if got.Success || got.Error != "upstream 503" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestMatchSyncService_SyncMatches_StoreFailureCountsPerMatch(t *testing.T) {
	t.Parallel()

	repo := matchmock.NewRepository(t)
	repo.On("GetByID", mock.Anything, testMatchID).Return(match.Match{}, false, errors.New("db down")).Once()

	provider := &stubMatchProvider{items: []ExternalMatch{externalLive(1.0, 6), {ExternalID: " "}}}
	service := NewMatchSyncService(provider, repo, nil, logging.NewNop())

	got, err := service.SyncMatches(context.Background())
	if err != nil {
		t.Fatalf("SyncMatches error: %v", err)
	}
	if !got.Success || got.Failed != 1 || got.Skipped != 1 || got.Upserted != 0 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestQueueChangePublisher_SanitizesDedupID(t *testing.T) {
	t.Parallel()

	queue := &recordingJobQueue{}
	after := testMatch(match.StatusLive, 1, 3, 20)
	after.ID = "ipl/2026:match 7"

	if err := NewQueueChangePublisher(queue).PublishMatchChange(context.Background(), MatchChange{After: after}); err != nil {
		t.Fatalf("PublishMatchChange error: %v", err)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].path != jobPathMatchUpdated {
		t.Fatalf("unexpected jobs: %+v", queue.jobs)
	}
	if got := queue.jobs[0].dedupID; got != "match-ipl_2026_match_7-live-1-3" {
		t.Fatalf("unexpected dedup id: %s", got)
	}
}
