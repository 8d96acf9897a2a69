package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	qb "github.com/riskibarqy/cricket-battle/internal/platform/querybuilder"
)

type LeaderboardRepository struct {
	db *sqlx.DB
}

func NewLeaderboardRepository(db *sqlx.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Credit relies on ON CONFLICT so concurrent credits for the same user add up
// instead of overwriting each other.
func (r *LeaderboardRepository) Credit(ctx context.Context, credit leaderboard.Credit) (leaderboard.Entry, error) {
	at := credit.At
	if at.IsZero() {
		at = time.Now()
	}
	predictions, battles := credit.Counters()

	query, args, err := qb.InsertModel("leaderboard_entries", leaderboardEntryTableModel{
		MatchID:     credit.MatchID,
		RoomID:      credit.Scope.RoomID,
		UserID:      credit.UserID,
		TotalPoints: credit.Points,
		Predictions: predictions,
		Battles:     battles,
		CreatedAt:   at.UTC(),
		UpdatedAt:   at.UTC(),
	}, `ON CONFLICT (match_id, room_id, user_id)
DO UPDATE SET
    total_points = leaderboard_entries.total_points + EXCLUDED.total_points,
    predictions = leaderboard_entries.predictions + EXCLUDED.predictions,
    battles = leaderboard_entries.battles + EXCLUDED.battles,
    updated_at = EXCLUDED.updated_at
RETURNING *`)
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("build credit leaderboard query: %w", err)
	}

	var row leaderboardEntryTableModel
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, args...); err != nil {
		return leaderboard.Entry{}, fmt.Errorf("credit leaderboard match=%s user=%s: %w", credit.MatchID, credit.UserID, err)
	}
	return entryFromRow(row), nil
}

func (r *LeaderboardRepository) Get(ctx context.Context, matchID string, scope leaderboard.Scope, userID string) (leaderboard.Entry, bool, error) {
	query, args, err := qb.Select("*").From("leaderboard_entries").
		Where(qb.Eq("match_id", matchID), qb.Eq("room_id", scope.RoomID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return leaderboard.Entry{}, false, fmt.Errorf("build get leaderboard entry query: %w", err)
	}

	var row leaderboardEntryTableModel
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, args...); err != nil {
		if isNotFound(err) {
			return leaderboard.Entry{}, false, nil
		}
		return leaderboard.Entry{}, false, fmt.Errorf("get leaderboard entry: %w", err)
	}
	return entryFromRow(row), true, nil
}

func (r *LeaderboardRepository) List(ctx context.Context, matchID string, scope leaderboard.Scope, limit int) ([]leaderboard.Entry, error) {
	builder := qb.Select("*").From("leaderboard_entries").
		Where(qb.Eq("match_id", matchID), qb.Eq("room_id", scope.RoomID)).
		OrderBy("total_points DESC", "user_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leaderboard query: %w", err)
	}

	var rows []leaderboardEntryTableModel
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leaderboard match=%s scope=%s: %w", matchID, scope, err)
	}

	out := make([]leaderboard.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromRow(row))
	}
	return out, nil
}

func (r *LeaderboardRepository) ListRoomIDs(ctx context.Context, matchID string) ([]string, error) {
	query, args, err := qb.Select("DISTINCT room_id").From("leaderboard_entries").
		Where(qb.Eq("match_id", matchID), qb.Expr("room_id <> ''")).
		OrderBy("room_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leaderboard rooms query: %w", err)
	}

	var out []string
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &out, query, args...); err != nil {
		return nil, fmt.Errorf("list leaderboard rooms: %w", err)
	}
	return out, nil
}

func (r *LeaderboardRepository) LatestMatchID(ctx context.Context, excludeMatchID string) (string, bool, error) {
	query, args, err := qb.Select("match_id").From("leaderboard_entries").
		Where(qb.EqLiteral("room_id", ""), qb.Expr("match_id <> ?", excludeMatchID)).
		GroupBy("match_id").
		OrderBy("MIN(created_at) DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build latest leaderboard query: %w", err)
	}

	var matchID string
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &matchID, query, args...); err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("latest leaderboard match: %w", err)
	}
	return matchID, true, nil
}

func (r *LeaderboardRepository) UpdateRanks(ctx context.Context, matchID string, scope leaderboard.Scope, ranks []leaderboard.RankPosition) error {
	if len(ranks) == 0 {
		return nil
	}
	return withinTx(ctx, r.db, func(ctx context.Context, q sqlx.ExtContext) error {
		for _, pos := range ranks {
			query, args, err := qb.Update("leaderboard_entries").
				Set("rank", pos.Rank).
				SetExpr("updated_at", "NOW()").
				Where(qb.Eq("match_id", matchID), qb.Eq("room_id", scope.RoomID), qb.Eq("user_id", pos.UserID)).
				ToSQL()
			if err != nil {
				return fmt.Errorf("build update rank query: %w", err)
			}
			result, err := q.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("update rank user=%s: %w", pos.UserID, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("read affected rows update rank: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("leaderboard entry not found match=%s scope=%s user=%s", matchID, scope, pos.UserID)
			}
		}
		return nil
	})
}

func entryFromRow(row leaderboardEntryTableModel) leaderboard.Entry {
	return leaderboard.Entry{
		MatchID:     row.MatchID,
		Scope:       leaderboard.Scope{RoomID: row.RoomID},
		UserID:      row.UserID,
		TotalPoints: row.TotalPoints,
		Predictions: row.Predictions,
		Battles:     row.Battles,
		Rank:        row.Rank,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
