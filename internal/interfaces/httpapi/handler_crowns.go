package httpapi

import (
	"net/http"

	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

func (h *Handler) AssignMatchChampionCrown(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "AssignMatchChampionCrown")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var req matchChampionRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.crownService.AssignMatchChampion(ctx, principal.UserID, req.MatchID)
	if err != nil {
		h.logger.WarnContext(ctx, "assign match champion failed", "caller_id", principal.UserID, "match_id", req.MatchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) UpdateQuizProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "UpdateQuizProgress")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var req quizProgressRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.crownService.RecordQuizProgress(ctx, usecase.QuizProgressInput{
		UserID:  principal.UserID,
		QuizID:  req.QuizID,
		Correct: *req.Correct,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update quiz progress failed", "user_id", principal.UserID, "quiz_id", req.QuizID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) UpdateBattleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "UpdateBattleProgress")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var req battleProgressRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.crownService.RecordBattleProgress(ctx, usecase.BattleProgressInput{
		UserID:  principal.UserID,
		MatchID: req.MatchID,
		Won:     *req.Won,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update battle progress failed", "user_id", principal.UserID, "match_id", req.MatchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}
