package postgres

import (
	"testing"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
)

func TestMatchRowConversionKeepsOverRunsAndPerformances(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	lock := start.Add(match.PredictionLockLead)
	item := match.Match{
		ID:        "m1",
		Team1:     match.Team{Name: "India"},
		Team2:     match.Team{Name: "Australia"},
		Format:    match.FormatT20,
		StartTime: start,
		Status:    match.StatusLive,
		Innings:   match.Innings{Number: 1, Team: "India", Runs: 47, CurrentOver: 5, OverRuns: map[int]int{0: 6, 4: 11}},
		Squad1:    []match.SquadPlayer{{PlayerID: "ind-bat", Name: "Rohit Sharma", Role: match.RoleBatter}},
		Performances: map[string]match.PlayerPerformance{
			"ind-bat": {PlayerID: "ind-bat", Runs: 31, Sixes: 2},
		},
		PredictionLockTime: &lock,
	}

	model, err := matchToInsertModel(item)
	if err != nil {
		t.Fatalf("matchToInsertModel error: %v", err)
	}
	got, err := matchFromRow(matchTableModel{
		ID:                 model.ID,
		Team1Name:          model.Team1Name,
		Team2Name:          model.Team2Name,
		Format:             model.Format,
		StartTime:          model.StartTime,
		Status:             model.Status,
		Scorecard:          []byte(model.Scorecard),
		Innings:            []byte(model.Innings),
		Squad1:             []byte(model.Squad1),
		Squad2:             []byte(model.Squad2),
		Performances:       []byte(model.Performances),
		PredictionLockTime: model.PredictionLockTime,
	})
	if err != nil {
		t.Fatalf("matchFromRow error: %v", err)
	}

	if runs, ok := got.Innings.RunsInOver(4); !ok || runs != 11 {
		t.Fatalf("over runs lost: %+v", got.Innings)
	}
	if perf := got.Performances["ind-bat"]; perf.PlayerID != "ind-bat" || perf.Sixes != 2 {
		t.Fatalf("performance lost: %+v", got.Performances)
	}
	if len(got.Squad1) != 1 || got.Squad1[0].Role != match.RoleBatter || got.Squad2 != nil {
		t.Fatalf("unexpected squads: %+v / %+v", got.Squad1, got.Squad2)
	}
	if got.PredictionLockTime == nil || !got.PredictionLockTime.Equal(lock) || got.BattlesLockTime != nil {
		t.Fatalf("unexpected lock times: %v %v", got.PredictionLockTime, got.BattlesLockTime)
	}
}

func TestStringArrayNeverNull(t *testing.T) {
	value, err := stringArray(nil).Value()
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	if value != "{}" {
		t.Fatalf("expected empty array literal, got %v", value)
	}

	profile := userFromRow(userTableModel{ID: "u1", QuizPerfectDays: stringArray([]string{"2026-04-01"})})
	if len(profile.Quiz.PerfectDays) != 1 || profile.Quiz.PerfectDays[0] != "2026-04-01" {
		t.Fatalf("unexpected perfect days: %+v", profile.Quiz)
	}
}

func TestJobDispatchInsertModelPerStatus(t *testing.T) {
	at := time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)

	clock := func() time.Time { return at }

	sent, err := dispatchEventModel(jobscheduler.DispatchEvent{
		DispatchID:   " d1 ",
		JobPath:      "/v1/internal/jobs/sync-matches",
		Status:       jobscheduler.StatusSent,
		TraceID:      "trace-1",
		ErrorMessage: "ignored",
	}, clock)
	if err != nil {
		t.Fatalf("sent model error: %v", err)
	}
	if sent.JobName != "unknown" || sent.Payload != "{}" || sent.Attempts != 0 || sent.SentAt == nil || !sent.SentAt.Equal(at) || sent.LastError != nil {
		t.Fatalf("unexpected sent model: %+v", sent)
	}
	if sent.DispatchID != "d1" || sent.TraceID == nil || *sent.TraceID != "trace-1" {
		t.Fatalf("unexpected sent identity: %+v", sent)
	}

	failed, err := dispatchEventModel(jobscheduler.DispatchEvent{
		DispatchID:   "d1",
		JobName:      jobscheduler.JobSyncMatches,
		Status:       jobscheduler.StatusFailed,
		OccurredAt:   at,
		ErrorMessage: " provider down ",
		Payload:      map[string]any{"match_id": "m1"},
	}, clock)
	if err != nil {
		t.Fatalf("failed model error: %v", err)
	}
	if failed.Attempts != 1 || failed.FailedAt == nil || failed.LastError == nil || *failed.LastError != "provider down" {
		t.Fatalf("unexpected failed model: %+v", failed)
	}
	if failed.Payload != `{"match_id":"m1"}` {
		t.Fatalf("unexpected payload: %s", failed.Payload)
	}

	if _, err := dispatchEventModel(jobscheduler.DispatchEvent{DispatchID: "d1", Status: "queued"}, clock); err == nil {
		t.Fatalf("expected unknown status error")
	}
	if _, err := dispatchEventModel(jobscheduler.DispatchEvent{DispatchID: " ", Status: jobscheduler.StatusSent}, clock); err == nil {
		t.Fatalf("expected missing dispatch id error")
	}
}
