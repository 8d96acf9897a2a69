package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

// Job names of the internal routes whose deliveries are audited.
const (
	JobSyncMatches      = "sync-matches"
	JobRankLeaderboards = "rank-leaderboards"
	JobMatchUpdated     = "match-updated"
)

// DispatchEvent is one state change of a job delivery. Repeated events for
// the same DispatchID collapse into a single audit row.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	MatchID      string
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

// Dispatch is the collapsed audit row.
type Dispatch struct {
	DispatchID  string
	JobName     string
	JobPath     string
	MatchID     string
	Payload     map[string]any
	Status      DispatchStatus
	Attempts    int
	LastError   string
	SentAt      *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}
