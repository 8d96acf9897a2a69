package postgres

import (
	"database/sql"
	"time"
)

type predictionTableModel struct {
	MatchID     string    `db:"match_id"`
	UserID      string    `db:"user_id"`
	Innings     int       `db:"innings"`
	WinnerPick  string    `db:"winner_pick"`
	TotalPoints int       `db:"total_points"`
	Locked      bool      `db:"locked"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type predictionOverTableModel struct {
	MatchID       string        `db:"match_id"`
	UserID        string        `db:"user_id"`
	OverNumber    int           `db:"over_number"`
	PredictedRuns int           `db:"predicted_runs"`
	ActualRuns    sql.NullInt64 `db:"actual_runs"`
	Points        int           `db:"points"`
	Locked        bool          `db:"locked"`
	ScoredAt      sql.NullTime  `db:"scored_at"`
}
