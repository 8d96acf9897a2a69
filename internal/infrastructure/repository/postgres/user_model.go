package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type userTableModel struct {
	ID                    string         `db:"id"`
	DisplayName           string         `db:"display_name"`
	DeviceToken           string         `db:"device_token"`
	Points                int            `db:"points"`
	Crowns                int            `db:"crowns"`
	XP                    int            `db:"xp"`
	PreviousMatchID       string         `db:"previous_match_id"`
	LastMatchID           string         `db:"last_match_id"`
	QuizTotalAttempted    int            `db:"quiz_total_attempted"`
	QuizCorrectAnswers    int            `db:"quiz_correct_answers"`
	QuizCurrentStreak     int            `db:"quiz_current_streak"`
	QuizLastAt            sql.NullTime   `db:"quiz_last_at"`
	QuizLastCorrectDay    string         `db:"quiz_last_correct_day"`
	QuizTotalCrowns       int            `db:"quiz_total_crowns"`
	QuizMonth             string         `db:"quiz_month"`
	QuizPerfectDays       pq.StringArray `db:"quiz_perfect_days"`
	QuizCrownsThisMonth   int            `db:"quiz_crowns_this_month"`
	BattleTotal           int            `db:"battle_total"`
	BattleWins            int            `db:"battle_wins"`
	BattleLosses          int            `db:"battle_losses"`
	BattleTotalCrowns     int            `db:"battle_total_crowns"`
	BattleMonth           string         `db:"battle_month"`
	BattleRecordedMatches pq.StringArray `db:"battle_recorded_matches"`
	BattleWonMatches      pq.StringArray `db:"battle_won_matches"`
	BattleCrownsThisMonth int            `db:"battle_crowns_this_month"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

type matchChampionTableModel struct {
	MatchID   string    `db:"match_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
