package postgres

import "time"

type leaderboardEntryTableModel struct {
	MatchID     string    `db:"match_id"`
	RoomID      string    `db:"room_id"`
	UserID      string    `db:"user_id"`
	TotalPoints int       `db:"total_points"`
	Predictions int       `db:"predictions"`
	Battles     int       `db:"battles"`
	Rank        int       `db:"rank"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
