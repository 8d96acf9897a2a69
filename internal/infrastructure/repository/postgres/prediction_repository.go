package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	qb "github.com/riskibarqy/cricket-battle/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Get(ctx context.Context, matchID, userID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("match_id", matchID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	q := conn(ctx, r.db)
	var row predictionTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}

	overs, err := r.listOvers(ctx, q, matchID, userID)
	if err != nil {
		return prediction.Prediction{}, false, err
	}
	item := predictionFromRow(row)
	item.Overs = overs[userID]
	return item, true, nil
}

// Upsert writes the prediction header and replaces every unscored over.
// Scored overs stay as they are.
func (r *PredictionRepository) Upsert(ctx context.Context, item prediction.Prediction) error {
	now := time.Now().UTC()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return withinTx(ctx, r.db, func(ctx context.Context, q sqlx.ExtContext) error {
		query, args, err := qb.InsertModel("predictions", predictionTableModel{
			MatchID:     item.MatchID,
			UserID:      item.UserID,
			Innings:     item.Innings,
			WinnerPick:  item.WinnerPick,
			TotalPoints: item.TotalPoints,
			Locked:      item.Locked,
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		}, `ON CONFLICT (match_id, user_id)
DO UPDATE SET
    innings = EXCLUDED.innings,
    winner_pick = EXCLUDED.winner_pick,
    locked = EXCLUDED.locked,
    updated_at = EXCLUDED.updated_at`)
		if err != nil {
			return fmt.Errorf("build upsert prediction query: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert prediction match=%s user=%s: %w", item.MatchID, item.UserID, err)
		}

		if _, err := q.ExecContext(ctx,
			`DELETE FROM prediction_overs WHERE match_id = $1 AND user_id = $2 AND locked = FALSE`,
			item.MatchID, item.UserID,
		); err != nil {
			return fmt.Errorf("clear unscored overs: %w", err)
		}

		for _, over := range item.Overs {
			if over.Locked {
				continue
			}
			query, args, err := qb.InsertModel("prediction_overs", predictionOverTableModel{
				MatchID:       item.MatchID,
				UserID:        item.UserID,
				OverNumber:    over.Over,
				PredictedRuns: over.PredictedRuns,
				ActualRuns:    intPtrToNullInt64(over.ActualRuns),
			}, "ON CONFLICT (match_id, user_id, over_number) DO NOTHING")
			if err != nil {
				return fmt.Errorf("build insert over query: %w", err)
			}
			if _, err := q.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert over=%d: %w", over.Over, err)
			}
		}
		return nil
	})
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions query: %w", err)
	}

	q := conn(ctx, r.db)
	var rows []predictionTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	overs, err := r.listOvers(ctx, q, matchID, "")
	if err != nil {
		return nil, err
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		item := predictionFromRow(row)
		item.Overs = overs[row.UserID]
		out = append(out, item)
	}
	return out, nil
}

func (r *PredictionRepository) ListUnlockedUserIDs(ctx context.Context, matchID string) ([]string, error) {
	query, args, err := qb.Select("user_id").From("predictions").
		Where(qb.Eq("match_id", matchID), qb.Expr("locked = FALSE")).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unlocked predictions query: %w", err)
	}

	var out []string
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &out, query, args...); err != nil {
		return nil, fmt.Errorf("list unlocked prediction users: %w", err)
	}
	return out, nil
}

// ApplyOverResult scores the over row only while it is unlocked and bumps the
// prediction total in the same transaction.
func (r *PredictionRepository) ApplyOverResult(ctx context.Context, result prediction.OverResult) (bool, error) {
	var applied bool
	err := withinTx(ctx, r.db, func(ctx context.Context, q sqlx.ExtContext) error {
		query, args, err := qb.Update("prediction_overs").
			Set("actual_runs", result.ActualRuns).
			Set("points", result.Points).
			Set("locked", true).
			Set("scored_at", result.ScoredAt.UTC()).
			Where(
				qb.Eq("match_id", result.MatchID),
				qb.Eq("user_id", result.UserID),
				qb.Eq("over_number", result.Over),
				qb.Expr("locked = FALSE"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build score over query: %w", err)
		}

		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("score over=%d user=%s: %w", result.Over, result.UserID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows score over: %w", err)
		}
		if affected == 0 {
			return nil
		}

		query, args, err = qb.Update("predictions").
			SetExpr("total_points", "total_points + ?", result.Points).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("match_id", result.MatchID), qb.Eq("user_id", result.UserID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build add prediction points query: %w", err)
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("add prediction points user=%s: %w", result.UserID, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// listOvers loads over rows grouped by user. An empty userID loads the whole
// match.
func (r *PredictionRepository) listOvers(ctx context.Context, q sqlx.QueryerContext, matchID, userID string) (map[string][]prediction.OverForecast, error) {
	conditions := []qb.Condition{qb.Eq("match_id", matchID)}
	if userID != "" {
		conditions = append(conditions, qb.Eq("user_id", userID))
	}
	query, args, err := qb.Select("*").From("prediction_overs").
		Where(conditions...).
		OrderBy("user_id", "over_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list overs query: %w", err)
	}

	var rows []predictionOverTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list prediction overs: %w", err)
	}

	out := make(map[string][]prediction.OverForecast)
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], prediction.OverForecast{
			Over:          row.OverNumber,
			PredictedRuns: row.PredictedRuns,
			ActualRuns:    nullInt64ToIntPtr(row.ActualRuns),
			Points:        row.Points,
			Locked:        row.Locked,
			ScoredAt:      nullTimeToTimePtr(row.ScoredAt),
		})
	}
	return out, nil
}

func predictionFromRow(row predictionTableModel) prediction.Prediction {
	return prediction.Prediction{
		MatchID:     row.MatchID,
		UserID:      row.UserID,
		Innings:     row.Innings,
		WinnerPick:  row.WinnerPick,
		TotalPoints: row.TotalPoints,
		Locked:      row.Locked,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
