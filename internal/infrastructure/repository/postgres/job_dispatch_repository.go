package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-battle/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/cricket-battle/internal/platform/querybuilder"
)

// dispatchUpsertSuffix folds one delivery event into the audit row. Each
// terminal event counts as an attempt; a completion clears the failure
// fields left by earlier attempts.
const dispatchUpsertSuffix = `ON CONFLICT (dispatch_id) DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    match_id = COALESCE(NULLIF(EXCLUDED.match_id, ''), job_dispatches.match_id),
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    attempts = job_dispatches.attempts + EXCLUDED.attempts,
    sent_at = COALESCE(EXCLUDED.sent_at, job_dispatches.sent_at),
    completed_at = COALESCE(EXCLUDED.completed_at, job_dispatches.completed_at),
    failed_at = CASE WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE COALESCE(EXCLUDED.failed_at, job_dispatches.failed_at) END,
    last_error = EXCLUDED.last_error,
    last_trace_id = COALESCE(EXCLUDED.last_trace_id, job_dispatches.last_trace_id),
    last_span_id = COALESCE(EXCLUDED.last_span_id, job_dispatches.last_span_id),
    updated_at = NOW()`

type JobDispatchRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db, now: time.Now}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	model, err := dispatchEventModel(event, r.now)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel("job_dispatches", model, dispatchUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch %s status=%s: %w", model.DispatchID, model.Status, err)
	}
	return nil
}

func (r *JobDispatchRepository) Get(ctx context.Context, dispatchID string) (jobscheduler.Dispatch, bool, error) {
	query, args, err := qb.Select(
		"dispatch_id", "job_name", "job_path", "match_id", "payload", "status", "attempts",
		"last_error", "sent_at", "completed_at", "failed_at",
	).From("job_dispatches").
		Where(qb.Eq("dispatch_id", strings.TrimSpace(dispatchID))).
		ToSQL()
	if err != nil {
		return jobscheduler.Dispatch{}, false, fmt.Errorf("build get job dispatch query: %w", err)
	}

	var row jobDispatchTableModel
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, args...); err != nil {
		if isNotFound(err) {
			return jobscheduler.Dispatch{}, false, nil
		}
		return jobscheduler.Dispatch{}, false, fmt.Errorf("get job dispatch %s: %w", dispatchID, err)
	}
	item, err := row.toDomain()
	if err != nil {
		return jobscheduler.Dispatch{}, false, err
	}
	return item, true, nil
}

func dispatchEventModel(event jobscheduler.DispatchEvent, now func() time.Time) (jobDispatchInsertModel, error) {
	id := strings.TrimSpace(event.DispatchID)
	if id == "" {
		return jobDispatchInsertModel{}, fmt.Errorf("dispatch id is required")
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = now()
	}
	at = at.UTC()

	payload, err := jsonColumn(orEmptyPayload(event.Payload))
	if err != nil {
		return jobDispatchInsertModel{}, fmt.Errorf("encode job dispatch payload: %w", err)
	}

	model := jobDispatchInsertModel{
		DispatchID: id,
		JobName:    orDefault(event.JobName, "unknown"),
		JobPath:    orDefault(event.JobPath, "/unknown"),
		MatchID:    strings.TrimSpace(event.MatchID),
		Payload:    payload,
		Status:     string(event.Status),
		TraceID:    optionalString(event.TraceID),
		SpanID:     optionalString(event.SpanID),
	}
	switch event.Status {
	case jobscheduler.StatusSent:
		model.SentAt = &at
	case jobscheduler.StatusCompleted:
		model.Attempts = 1
		model.CompletedAt = &at
	case jobscheduler.StatusFailed:
		model.Attempts = 1
		model.FailedAt = &at
		model.LastError = optionalString(event.ErrorMessage)
	default:
		return jobDispatchInsertModel{}, fmt.Errorf("unknown job dispatch status %q", event.Status)
	}
	return model, nil
}

func orEmptyPayload(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
