package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID                 string       `db:"id"`
	Team1Name          string       `db:"team1_name"`
	Team1ImageURL      string       `db:"team1_image_url"`
	Team2Name          string       `db:"team2_name"`
	Team2ImageURL      string       `db:"team2_image_url"`
	SeriesName         string       `db:"series_name"`
	Format             string       `db:"format"`
	Venue              string       `db:"venue"`
	TossWinner         string       `db:"toss_winner"`
	TossDecision       string       `db:"toss_decision"`
	StartTime          time.Time    `db:"start_time"`
	Status             string       `db:"status"`
	Scorecard          []byte       `db:"scorecard"`
	Innings            []byte       `db:"innings"`
	Squad1             []byte       `db:"squad1"`
	Squad2             []byte       `db:"squad2"`
	Performances       []byte       `db:"performances"`
	PredictionLockTime sql.NullTime `db:"prediction_lock_time"`
	BattlesLockTime    sql.NullTime `db:"battles_lock_time"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

type matchInsertModel struct {
	ID                 string       `db:"id"`
	Team1Name          string       `db:"team1_name"`
	Team1ImageURL      string       `db:"team1_image_url"`
	Team2Name          string       `db:"team2_name"`
	Team2ImageURL      string       `db:"team2_image_url"`
	SeriesName         string       `db:"series_name"`
	Format             string       `db:"format"`
	Venue              string       `db:"venue"`
	TossWinner         string       `db:"toss_winner"`
	TossDecision       string       `db:"toss_decision"`
	StartTime          time.Time    `db:"start_time"`
	Status             string       `db:"status"`
	Scorecard          string       `db:"scorecard"`
	Innings            string       `db:"innings"`
	Squad1             string       `db:"squad1"`
	Squad2             string       `db:"squad2"`
	Performances       string       `db:"performances"`
	PredictionLockTime sql.NullTime `db:"prediction_lock_time"`
	BattlesLockTime    sql.NullTime `db:"battles_lock_time"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

type inningsScoreJSON struct {
	Team    string  `json:"team"`
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Overs   float64 `json:"overs"`
}

type inningsJSON struct {
	Number      int            `json:"number"`
	Team        string         `json:"team"`
	Runs        int            `json:"runs"`
	Wickets     int            `json:"wickets"`
	CurrentOver int            `json:"current_over"`
	CurrentBall int            `json:"current_ball"`
	OverRuns    map[string]int `json:"over_runs,omitempty"`
}

type squadPlayerJSON struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ImageURL string `json:"image_url,omitempty"`
}

type performanceJSON struct {
	Runs         int     `json:"runs"`
	BallsFaced   int     `json:"balls_faced"`
	Fours        int     `json:"fours"`
	Sixes        int     `json:"sixes"`
	Wickets      int     `json:"wickets"`
	OversBowled  float64 `json:"overs_bowled"`
	RunsConceded int     `json:"runs_conceded"`
	Maidens      int     `json:"maidens"`
	Catches      int     `json:"catches"`
}
