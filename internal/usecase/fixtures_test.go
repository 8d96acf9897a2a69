package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
)

const testMatchID = "m-ind-aus"

func testMatch(status match.Status, innings, over, runs int) match.Match {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return match.Match{
		ID:         testMatchID,
		Team1:      match.Team{Name: "India"},
		Team2:      match.Team{Name: "Australia"},
		SeriesName: "T20 Series",
		Format:     match.FormatT20,
		Venue:      "Wankhede",
		StartTime:  start,
		Status:     status,
		Innings: match.Innings{
			Number:      innings,
			Runs:        runs,
			CurrentOver: over,
		},
		Squad1: []match.SquadPlayer{
			{PlayerID: "ind-bat", Name: "Rohit Sharma", Role: match.RoleBatter},
			{PlayerID: "ind-bowl", Name: "Jasprit Bumrah", Role: match.RoleBowler},
			{PlayerID: "ind-ar", Name: "Hardik Pandya", Role: match.RoleAllRounder},
		},
		Squad2: []match.SquadPlayer{
			{PlayerID: "aus-bat", Name: "Travis Head", Role: match.RoleBatter},
			{PlayerID: "aus-bowl", Name: "Mitchell Starc", Role: match.RoleBowler},
			{PlayerID: "aus-ar", Name: "Glenn Maxwell", Role: match.RoleAllRounder},
		},
	}
}

type recordedNotification struct {
	userIDs []string
	msg     notification.Message
}

// recordingNotifier captures messages instead of sending them.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []recordedNotification
	reply NotifyResult
}

func (n *recordingNotifier) Notify(ctx context.Context, userID string, msg notification.Message) NotifyResult {
	return n.NotifyBatch(ctx, []string{userID}, msg)
}

func (n *recordingNotifier) NotifyBatch(_ context.Context, userIDs []string, msg notification.Message) NotifyResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recordedNotification{userIDs: append([]string(nil), userIDs...), msg: msg})
	return n.reply
}

func (n *recordingNotifier) messages() []recordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedNotification(nil), n.sent...)
}

type enqueuedJob struct {
	path    string
	payload any
	dedupID string
}

type recordingJobQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	err  error
}

func (q *recordingJobQueue) Enqueue(_ context.Context, path string, payload any, _ time.Duration, deduplicationID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, enqueuedJob{path: path, payload: payload, dedupID: deduplicationID})
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func intPtr(v int) *int {
	return &v
}
