package httpapi

import (
	"fmt"
	"time"

	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

type matchChampionRequest struct {
	MatchID string `json:"match_id" validate:"required,max=128"`
}

// Correct and Won are pointers so a missing field fails validation instead of
// reading as false.
type quizProgressRequest struct {
	QuizID  string `json:"quiz_id" validate:"max=128"`
	Correct *bool  `json:"correct" validate:"required"`
}

type battleProgressRequest struct {
	MatchID string `json:"match_id" validate:"required,max=128"`
	Won     *bool  `json:"won" validate:"required"`
}

type battleChangeRulesRequest struct {
	MatchID     string `json:"match_id" validate:"required,max=128"`
	BattleType  string `json:"battle_type" validate:"omitempty,max=64"`
	OldPlayerID string `json:"old_player_id" validate:"max=128"`
}

type battleChangeRequest struct {
	MatchID     string `json:"match_id" validate:"required,max=128"`
	BattleType  string `json:"battle_type" validate:"required,max=64"`
	NewPlayerID string `json:"new_player_id" validate:"required,max=128"`
}

type submitBattleRequest struct {
	RoomID     string `json:"room_id" validate:"max=128"`
	BattleType string `json:"battle_type" validate:"required,max=64"`
	PlayerID   string `json:"player_id" validate:"required,max=128"`
}

type overForecastRequest struct {
	Over          int `json:"over" validate:"gte=0,lte=89"`
	PredictedRuns int `json:"predicted_runs" validate:"gte=0,lte=36"`
}

type submitPredictionRequest struct {
	Innings    int                   `json:"innings" validate:"omitempty,oneof=1 2"`
	WinnerPick string                `json:"winner_pick" validate:"max=128"`
	Overs      []overForecastRequest `json:"overs" validate:"max=90,dive"`
}

type internalJobRequest struct {
	MatchID    string `json:"match_id"`
	DispatchID string `json:"dispatch_id"`
}

type battleDTO struct {
	MatchID          string `json:"match_id"`
	RoomID           string `json:"room_id,omitempty"`
	Type             string `json:"battle_type"`
	PlayerID         string `json:"player_id"`
	PlayerName       string `json:"player_name"`
	PlayerTeam       string `json:"player_team"`
	Points           int    `json:"points"`
	Resolved         bool   `json:"resolved"`
	Changed          bool   `json:"changed"`
	PreviousPlayerID string `json:"previous_player_id,omitempty"`
	SubmittedAtUTC   string `json:"submitted_at_utc"`
}

type overForecastDTO struct {
	Over          int  `json:"over"`
	PredictedRuns int  `json:"predicted_runs"`
	ActualRuns    *int `json:"actual_runs"`
	Points        int  `json:"points"`
	Locked        bool `json:"locked"`
}

type predictionDTO struct {
	MatchID     string            `json:"match_id"`
	Innings     int               `json:"innings"`
	WinnerPick  string            `json:"winner_pick"`
	TotalPoints int               `json:"total_points"`
	Overs       []overForecastDTO `json:"overs"`
}

type leaderboardEntryDTO struct {
	UserID      string `json:"user_id"`
	TotalPoints int    `json:"total_points"`
	Predictions int    `json:"predictions"`
	Battles     int    `json:"battles"`
	Rank        int    `json:"rank"`
}

type leaderboardDTO struct {
	MatchID string                `json:"match_id"`
	Scope   string                `json:"scope"`
	Entries []leaderboardEntryDTO `json:"entries"`
}

func battleToDTO(v battle.Battle) battleDTO {
	return battleDTO{
		MatchID:          v.MatchID,
		RoomID:           v.RoomID,
		Type:             string(v.Type),
		PlayerID:         v.Player.PlayerID,
		PlayerName:       v.Player.Name,
		PlayerTeam:       v.Player.Team,
		Points:           v.Points,
		Resolved:         v.Resolved,
		Changed:          v.Changed,
		PreviousPlayerID: v.PreviousPlayerID,
		SubmittedAtUTC:   v.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func predictionToDTO(v prediction.Prediction) predictionDTO {
	overs := make([]overForecastDTO, 0, len(v.Overs))
	for _, o := range v.Overs {
		overs = append(overs, overForecastDTO{
			Over:          o.Over,
			PredictedRuns: o.PredictedRuns,
			ActualRuns:    o.ActualRuns,
			Points:        o.Points,
			Locked:        o.Locked,
		})
	}
	return predictionDTO{
		MatchID:     v.MatchID,
		Innings:     v.Innings,
		WinnerPick:  v.WinnerPick,
		TotalPoints: v.TotalPoints,
		Overs:       overs,
	}
}

func leaderboardEntryToDTO(v leaderboard.Entry) leaderboardEntryDTO {
	return leaderboardEntryDTO{
		UserID:      v.UserID,
		TotalPoints: v.TotalPoints,
		Predictions: v.Predictions,
		Battles:     v.Battles,
		Rank:        v.Rank,
	}
}

func errInvalidQuery(msg string) error {
	return fmt.Errorf("%w: %s", usecase.ErrInvalidInput, msg)
}
