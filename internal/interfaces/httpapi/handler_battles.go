package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

func (h *Handler) EnforceBattleChangeRules(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "EnforceBattleChangeRules")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var req battleChangeRulesRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.battleChangeService.CheckChangeAllowance(ctx, usecase.BattleChangeCheckInput{
		UserID:      principal.UserID,
		MatchID:     req.MatchID,
		BattleType:  battle.Type(strings.ToUpper(req.BattleType)),
		OldPlayerID: req.OldPlayerID,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "battle change rejected", "user_id", principal.UserID, "match_id", req.MatchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) ChangeBattlePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ChangeBattlePick")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var req battleChangeRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.battleChangeService.ChangePick(ctx, usecase.BattleChangeInput{
		UserID:      principal.UserID,
		MatchID:     req.MatchID,
		BattleType:  battle.Type(strings.ToUpper(req.BattleType)),
		NewPlayerID: req.NewPlayerID,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "battle pick change failed", "user_id", principal.UserID, "match_id", req.MatchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, battleToDTO(item))
}

func (h *Handler) SubmitBattlePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "SubmitBattlePick")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitBattleRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	item, err := h.submissionService.SubmitBattle(ctx, usecase.SubmitBattleInput{
		UserID:   principal.UserID,
		MatchID:  matchID,
		RoomID:   req.RoomID,
		Type:     battle.Type(strings.ToUpper(req.BattleType)),
		PlayerID: req.PlayerID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit battle pick failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, battleToDTO(item))
}
