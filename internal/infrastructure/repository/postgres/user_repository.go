package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	qb "github.com/riskibarqy/cricket-battle/internal/platform/querybuilder"
)

const userUpsertSuffix = `ON CONFLICT (id)
DO UPDATE SET
    display_name = EXCLUDED.display_name,
    device_token = EXCLUDED.device_token,
    points = EXCLUDED.points,
    crowns = EXCLUDED.crowns,
    xp = EXCLUDED.xp,
    previous_match_id = EXCLUDED.previous_match_id,
    last_match_id = EXCLUDED.last_match_id,
    quiz_total_attempted = EXCLUDED.quiz_total_attempted,
    quiz_correct_answers = EXCLUDED.quiz_correct_answers,
    quiz_current_streak = EXCLUDED.quiz_current_streak,
    quiz_last_at = EXCLUDED.quiz_last_at,
    quiz_last_correct_day = EXCLUDED.quiz_last_correct_day,
    quiz_total_crowns = EXCLUDED.quiz_total_crowns,
    quiz_month = EXCLUDED.quiz_month,
    quiz_perfect_days = EXCLUDED.quiz_perfect_days,
    quiz_crowns_this_month = EXCLUDED.quiz_crowns_this_month,
    battle_total = EXCLUDED.battle_total,
    battle_wins = EXCLUDED.battle_wins,
    battle_losses = EXCLUDED.battle_losses,
    battle_total_crowns = EXCLUDED.battle_total_crowns,
    battle_month = EXCLUDED.battle_month,
    battle_recorded_matches = EXCLUDED.battle_recorded_matches,
    battle_won_matches = EXCLUDED.battle_won_matches,
    battle_crowns_this_month = EXCLUDED.battle_crowns_this_month,
    updated_at = EXCLUDED.updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").
		Where(qb.Eq("id", userID)).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user query: %w", err)
	}

	var row userTableModel
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user by id: %w", err)
	}
	return userFromRow(row), true, nil
}

func (r *UserRepository) Upsert(ctx context.Context, item user.User) error {
	return r.upsert(ctx, conn(ctx, r.db), item)
}

// Update reads the row with FOR UPDATE, so concurrent progress writes for one
// user apply one after another.
func (r *UserRepository) Update(ctx context.Context, userID string, fn func(*user.User) error) (user.User, error) {
	var out user.User
	err := withinTx(ctx, r.db, func(ctx context.Context, q sqlx.ExtContext) error {
		lockQuery, lockArgs, err := qb.Select("*").From("users").Where(qb.Eq("id", userID)).ForUpdate().ToSQL()
		if err != nil {
			return fmt.Errorf("build lock user query: %w", err)
		}
		var row userTableModel
		if err := sqlx.GetContext(ctx, q, &row, lockQuery, lockArgs...); err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%w: %s", user.ErrNotFound, userID)
			}
			return fmt.Errorf("lock user row: %w", err)
		}

		item := userFromRow(row)
		if err := fn(&item); err != nil {
			return err
		}
		item.ID = userID
		item.UpdatedAt = time.Now().UTC()
		if err := r.upsert(ctx, q, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return out, nil
}

func (r *UserRepository) upsert(ctx context.Context, q sqlx.ExecerContext, item user.User) error {
	now := time.Now().UTC()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	query, args, err := qb.InsertModel("users", userTableModel{
		ID:                    item.ID,
		DisplayName:           item.DisplayName,
		DeviceToken:           item.DeviceToken,
		Points:                item.Points,
		Crowns:                item.Crowns,
		XP:                    item.XP,
		PreviousMatchID:       item.PreviousMatchID,
		LastMatchID:           item.LastMatchID,
		QuizTotalAttempted:    item.Quiz.TotalAttempted,
		QuizCorrectAnswers:    item.Quiz.CorrectAnswers,
		QuizCurrentStreak:     item.Quiz.CurrentStreak,
		QuizLastAt:            timePtrToNullTime(item.Quiz.LastQuizAt),
		QuizLastCorrectDay:    item.Quiz.LastCorrectDay,
		QuizTotalCrowns:       item.Quiz.TotalCrownsEarned,
		QuizMonth:             item.Quiz.Month,
		QuizPerfectDays:       stringArray(item.Quiz.PerfectDays),
		QuizCrownsThisMonth:   item.Quiz.CrownsThisMonth,
		BattleTotal:           item.Battle.TotalBattles,
		BattleWins:            item.Battle.Wins,
		BattleLosses:          item.Battle.Losses,
		BattleTotalCrowns:     item.Battle.TotalCrownsEarned,
		BattleMonth:           item.Battle.Month,
		BattleRecordedMatches: stringArray(item.Battle.RecordedMatches),
		BattleWonMatches:      stringArray(item.Battle.WonMatches),
		BattleCrownsThisMonth: item.Battle.CrownsThisMonth,
		CreatedAt:             createdAt.UTC(),
		UpdatedAt:             updatedAt.UTC(),
	}, userUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert user query: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert user id=%s: %w", item.ID, err)
	}
	return nil
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:              row.ID,
		DisplayName:     row.DisplayName,
		DeviceToken:     row.DeviceToken,
		Points:          row.Points,
		Crowns:          row.Crowns,
		XP:              row.XP,
		PreviousMatchID: row.PreviousMatchID,
		LastMatchID:     row.LastMatchID,
		Quiz: user.QuizStats{
			TotalAttempted:    row.QuizTotalAttempted,
			CorrectAnswers:    row.QuizCorrectAnswers,
			CurrentStreak:     row.QuizCurrentStreak,
			LastQuizAt:        nullTimeToTimePtr(row.QuizLastAt),
			LastCorrectDay:    row.QuizLastCorrectDay,
			TotalCrownsEarned: row.QuizTotalCrowns,
			Month:             row.QuizMonth,
			PerfectDays:       []string(row.QuizPerfectDays),
			CrownsThisMonth:   row.QuizCrownsThisMonth,
		},
		Battle: user.BattleStats{
			TotalBattles:      row.BattleTotal,
			Wins:              row.BattleWins,
			Losses:            row.BattleLosses,
			TotalCrownsEarned: row.BattleTotalCrowns,
			Month:             row.BattleMonth,
			RecordedMatches:   []string(row.BattleRecordedMatches),
			WonMatches:        []string(row.BattleWonMatches),
			CrownsThisMonth:   row.BattleCrownsThisMonth,
		},
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

// stringArray keeps NOT NULL text[] columns at '{}' instead of NULL.
func stringArray(items []string) pq.StringArray {
	if items == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(items)
}

type ChampionLedger struct {
	db *sqlx.DB
}

func NewChampionLedger(db *sqlx.DB) *ChampionLedger {
	return &ChampionLedger{db: db}
}

func (l *ChampionLedger) ClaimChampion(ctx context.Context, matchID, userID string) (string, bool, error) {
	query, args, err := qb.InsertModel("match_champions", matchChampionTableModel{
		MatchID:   matchID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}, "ON CONFLICT (match_id) DO NOTHING RETURNING user_id")
	if err != nil {
		return "", false, fmt.Errorf("build claim champion query: %w", err)
	}

	q := conn(ctx, l.db)
	var claimed string
	err = sqlx.GetContext(ctx, q, &claimed, query, args...)
	if err == nil {
		return claimed, true, nil
	}
	if !isNotFound(err) {
		return "", false, fmt.Errorf("claim champion match=%s: %w", matchID, err)
	}

	var existing string
	if err := sqlx.GetContext(ctx, q, &existing, `SELECT user_id FROM match_champions WHERE match_id = $1`, matchID); err != nil {
		return "", false, fmt.Errorf("get champion match=%s: %w", matchID, err)
	}
	return existing, false, nil
}

func (l *ChampionLedger) ReleaseChampion(ctx context.Context, matchID string) error {
	if _, err := conn(ctx, l.db).ExecContext(ctx, `DELETE FROM match_champions WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("release champion match=%s: %w", matchID, err)
	}
	return nil
}
