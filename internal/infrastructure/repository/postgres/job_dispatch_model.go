package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/jobscheduler"
)

type jobDispatchInsertModel struct {
	DispatchID  string     `db:"dispatch_id"`
	JobName     string     `db:"job_name"`
	JobPath     string     `db:"job_path"`
	MatchID     string     `db:"match_id"`
	Payload     string     `db:"payload"`
	Status      string     `db:"status"`
	Attempts    int        `db:"attempts"`
	SentAt      *time.Time `db:"sent_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	LastError   *string    `db:"last_error"`
	TraceID     *string    `db:"last_trace_id"`
	SpanID      *string    `db:"last_span_id"`
}

type jobDispatchTableModel struct {
	DispatchID  string         `db:"dispatch_id"`
	JobName     string         `db:"job_name"`
	JobPath     string         `db:"job_path"`
	MatchID     string         `db:"match_id"`
	Payload     []byte         `db:"payload"`
	Status      string         `db:"status"`
	Attempts    int            `db:"attempts"`
	LastError   sql.NullString `db:"last_error"`
	SentAt      sql.NullTime   `db:"sent_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
	FailedAt    sql.NullTime   `db:"failed_at"`
}

func (m jobDispatchTableModel) toDomain() (jobscheduler.Dispatch, error) {
	var payload map[string]any
	if err := decodeJSONColumn(m.Payload, &payload); err != nil {
		return jobscheduler.Dispatch{}, fmt.Errorf("decode job dispatch payload %s: %w", m.DispatchID, err)
	}
	return jobscheduler.Dispatch{
		DispatchID:  m.DispatchID,
		JobName:     m.JobName,
		JobPath:     m.JobPath,
		MatchID:     m.MatchID,
		Payload:     payload,
		Status:      jobscheduler.DispatchStatus(m.Status),
		Attempts:    m.Attempts,
		LastError:   m.LastError.String,
		SentAt:      nullTimeToTimePtr(m.SentAt),
		CompletedAt: nullTimeToTimePtr(m.CompletedAt),
		FailedAt:    nullTimeToTimePtr(m.FailedAt),
	}, nil
}
