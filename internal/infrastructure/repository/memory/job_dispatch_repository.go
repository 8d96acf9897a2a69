package memory

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	mu    sync.RWMutex
	items map[string]jobscheduler.Dispatch
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{items: make(map[string]jobscheduler.Dispatch)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}
	at := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		at = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item := r.items[dispatchID]
	item.DispatchID = dispatchID
	item.JobName = event.JobName
	item.JobPath = event.JobPath
	item.MatchID = event.MatchID
	item.Status = event.Status
	item.Payload = maps.Clone(event.Payload)

	switch event.Status {
	case jobscheduler.StatusSent:
		item.SentAt = &at
		item.LastError = ""
	case jobscheduler.StatusCompleted:
		item.Attempts++
		item.CompletedAt = &at
		item.FailedAt = nil
		item.LastError = ""
	case jobscheduler.StatusFailed:
		item.Attempts++
		item.FailedAt = &at
		item.LastError = event.ErrorMessage
	}
	r.items[dispatchID] = item
	return nil
}

func (r *JobDispatchRepository) Get(_ context.Context, dispatchID string) (jobscheduler.Dispatch, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[strings.TrimSpace(dispatchID)]
	return item, ok, nil
}
