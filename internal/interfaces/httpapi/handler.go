package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/cricket-battle/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	idgen "github.com/riskibarqy/cricket-battle/internal/platform/id"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

type Handler struct {
	submissionService   *usecase.SubmissionService
	battleChangeService *usecase.BattleChangeService
	crownService        *usecase.CrownService
	leaderboardService  *usecase.LeaderboardService
	matchSyncService    *usecase.MatchSyncService
	matchWatcher        *usecase.MatchWatcher
	jobDispatchRepo     jobscheduler.Repository
	dispatchIDs         idgen.Generator
	logger              *logging.Logger
	validator           *validator.Validate
	now                 func() time.Time
}

func NewHandler(
	submissionService *usecase.SubmissionService,
	battleChangeService *usecase.BattleChangeService,
	crownService *usecase.CrownService,
	leaderboardService *usecase.LeaderboardService,
	matchSyncService *usecase.MatchSyncService,
	matchWatcher *usecase.MatchWatcher,
	jobDispatchRepo jobscheduler.Repository,
	dispatchIDs idgen.Generator,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if dispatchIDs == nil {
		dispatchIDs = idgen.NewUUIDGenerator("manual")
	}

	return &Handler{
		submissionService:   submissionService,
		battleChangeService: battleChangeService,
		crownService:        crownService,
		leaderboardService:  leaderboardService,
		matchSyncService:    matchSyncService,
		matchWatcher:        matchWatcher,
		jobDispatchRepo:     jobDispatchRepo,
		dispatchIDs:         dispatchIDs,
		logger:              logger,
		validator:           validator.New(),
		now:                 time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	_, span := startSpan(r.Context(), "Healthz")
	defer span.End()

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a request body. An empty body decodes to the zero value
// when allowEmpty is set.
func decodeJSON(r *http.Request, out any, allowEmpty bool) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, out any) error {
	if err := decodeJSON(r, out, false); err != nil {
		return err
	}
	return h.validateRequest(ctx, out)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok || principal.UserID == "" {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}
