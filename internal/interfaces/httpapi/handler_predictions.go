package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "SubmitPrediction")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitPredictionRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(w, err)
		return
	}

	overs := make([]prediction.OverForecast, 0, len(req.Overs))
	for _, o := range req.Overs {
		overs = append(overs, prediction.OverForecast{Over: o.Over, PredictedRuns: o.PredictedRuns})
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	item, err := h.submissionService.SubmitPrediction(ctx, usecase.SubmitPredictionInput{
		UserID:     principal.UserID,
		MatchID:    matchID,
		Innings:    req.Innings,
		WinnerPick: req.WinnerPick,
		Overs:      overs,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit prediction failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, predictionToDTO(item))
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "GetLeaderboard")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	scope := leaderboard.RoomScope(strings.TrimSpace(r.URL.Query().Get("room_id")))

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, errInvalidQuery("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	items, err := h.leaderboardService.List(ctx, matchID, scope, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list leaderboard failed", "match_id", matchID, "scope", scope.String(), "error", err)
		writeError(w, err)
		return
	}

	out := make([]leaderboardEntryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, leaderboardEntryToDTO(item))
	}
	writeSuccess(w, http.StatusOK, leaderboardDTO{
		MatchID: matchID,
		Scope:   scope.String(),
		Entries: out,
	})
}
