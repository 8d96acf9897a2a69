package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/cricket-battle/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

const (
	jobPathSyncMatches      = "/v1/internal/jobs/sync-matches"
	jobPathRankLeaderboards = "/v1/internal/jobs/rank-leaderboards"
	jobPathMatchUpdated     = "/v1/internal/triggers/match-updated"

	// Set by QStash on every delivery.
	qstashMessageIDHeader = "Upstash-Message-Id"
)

func (h *Handler) RunSyncMatchesJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "RunSyncMatchesJob")
	defer span.End()

	if h.matchSyncService == nil {
		writeError(w, fmt.Errorf("%w: match sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	var req internalJobRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	h.runJob(ctx, w, jobscheduler.DispatchEvent{
		DispatchID: h.resolveDispatchID(r, req.DispatchID),
		JobName:    jobscheduler.JobSyncMatches,
		JobPath:    jobPathSyncMatches,
		Payload:    req.payload(),
	}, func(ctx context.Context) (any, error) {
		result, err := h.matchSyncService.SyncMatches(ctx)
		if err == nil && !result.Success {
			err = fmt.Errorf("%w: %s", usecase.ErrDependencyUnavailable, result.Error)
		}
		return result, err
	})
}

func (h *Handler) RunRankLeaderboardsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "RunRankLeaderboardsJob")
	defer span.End()

	if h.leaderboardService == nil {
		writeError(w, fmt.Errorf("%w: leaderboard service is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	var req internalJobRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	req.MatchID = strings.TrimSpace(req.MatchID)
	if req.MatchID == "" {
		writeError(w, fmt.Errorf("%w: match_id is required", usecase.ErrInvalidInput))
		return
	}

	h.runJob(ctx, w, jobscheduler.DispatchEvent{
		DispatchID: h.resolveDispatchID(r, req.DispatchID),
		JobName:    jobscheduler.JobRankLeaderboards,
		JobPath:    jobPathRankLeaderboards,
		MatchID:    req.MatchID,
		Payload:    req.payload(),
	}, func(ctx context.Context) (any, error) {
		return h.leaderboardService.RankMatch(ctx, req.MatchID)
	})
}

// HandleMatchUpdatedTrigger feeds a queued match change to the watcher. A
// failure answers 5xx so the queue redelivers.
func (h *Handler) HandleMatchUpdatedTrigger(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "HandleMatchUpdatedTrigger")
	defer span.End()

	if h.matchWatcher == nil {
		writeError(w, fmt.Errorf("%w: match watcher is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	var change usecase.MatchChange
	if err := decodeJSON(r, &change, false); err != nil {
		writeError(w, err)
		return
	}
	matchID := change.After.ID
	if matchID == "" {
		matchID = change.Before.ID
	}

	payload := map[string]any{
		"match_id":      matchID,
		"before_status": string(change.Before.Status),
		"after_status":  string(change.After.Status),
		"current_over":  change.After.Innings.CurrentOver,
	}
	h.runJob(ctx, w, jobscheduler.DispatchEvent{
		DispatchID: h.resolveDispatchID(r, ""),
		JobName:    jobscheduler.JobMatchUpdated,
		JobPath:    jobPathMatchUpdated,
		MatchID:    matchID,
		Payload:    payload,
	}, func(ctx context.Context) (any, error) {
		result, err := h.matchWatcher.HandleMatchUpdate(ctx, change)
		// Overs left open for want of a run figure stay visible on the audit row.
		if len(result.OversUnscored) > 0 {
			payload["overs_unscored"] = result.OversUnscored
		}
		return result, err
	})
}

// runJob executes one internal job, audits the delivery and writes the reply.
func (h *Handler) runJob(ctx context.Context, w http.ResponseWriter, event jobscheduler.DispatchEvent, job func(context.Context) (any, error)) {
	result, err := job(ctx)
	h.recordDispatch(ctx, event, err)
	if err != nil {
		h.logger.WarnContext(ctx, "internal job failed",
			"job_name", event.JobName,
			"dispatch_id", event.DispatchID,
			"match_id", event.MatchID,
			"error", err,
		)
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

// resolveDispatchID prefers the queue message id, then the id in the body,
// then a generated manual id.
func (h *Handler) resolveDispatchID(r *http.Request, bodyID string) string {
	for _, candidate := range []string{r.Header.Get(qstashMessageIDHeader), bodyID} {
		if id := strings.TrimSpace(candidate); id != "" {
			return sanitizeDispatchID(id)
		}
	}
	id, err := h.dispatchIDs.NewID()
	if err != nil {
		return "manual_" + h.now().UTC().Format("20060102T150405.000000000Z")
	}
	return id
}

func (h *Handler) recordDispatch(ctx context.Context, event jobscheduler.DispatchEvent, jobErr error) {
	if h.jobDispatchRepo == nil {
		return
	}

	event.OccurredAt = h.now().UTC()
	event.Status = jobscheduler.StatusCompleted
	if jobErr != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = jobErr.Error()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		event.TraceID, event.SpanID = sc.TraceID().String(), sc.SpanID().String()
	}

	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record job dispatch failed", "dispatch_id", event.DispatchID, "status", event.Status, "error", err)
	}
}

func (req internalJobRequest) payload() map[string]any {
	out := map[string]any{}
	if req.MatchID != "" {
		out["match_id"] = req.MatchID
	}
	if id := strings.TrimSpace(req.DispatchID); id != "" {
		out["dispatch_id"] = id
	}
	return out
}

// sanitizeDispatchID keeps ids safe to use as primary keys and log values.
func sanitizeDispatchID(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, value)
}
