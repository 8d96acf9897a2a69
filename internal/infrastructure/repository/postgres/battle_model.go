package postgres

import (
	"database/sql"
	"time"
)

type battleTableModel struct {
	MatchID          string       `db:"match_id"`
	RoomID           string       `db:"room_id"`
	UserID           string       `db:"user_id"`
	BattleType       string       `db:"battle_type"`
	PlayerID         string       `db:"player_id"`
	PlayerName       string       `db:"player_name"`
	PlayerTeam       string       `db:"player_team"`
	Points           int          `db:"points"`
	Resolved         bool         `db:"resolved"`
	ResolvedAt       sql.NullTime `db:"resolved_at"`
	Changed          bool         `db:"changed"`
	ChangedAt        sql.NullTime `db:"changed_at"`
	PreviousPlayerID string       `db:"previous_player_id"`
	SubmittedAt      time.Time    `db:"submitted_at"`
}
