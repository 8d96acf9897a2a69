package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	qb "github.com/riskibarqy/cricket-battle/internal/platform/querybuilder"
)

type BattleRepository struct {
	db *sqlx.DB
}

func NewBattleRepository(db *sqlx.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

func (r *BattleRepository) Get(ctx context.Context, key battle.Key) (battle.Battle, bool, error) {
	query, args, err := qb.Select("*").From("battles").
		Where(keyConditions(key)...).
		ToSQL()
	if err != nil {
		return battle.Battle{}, false, fmt.Errorf("build get battle query: %w", err)
	}

	var row battleTableModel
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, args...); err != nil {
		if isNotFound(err) {
			return battle.Battle{}, false, nil
		}
		return battle.Battle{}, false, fmt.Errorf("get battle: %w", err)
	}
	return battleFromRow(row), true, nil
}

// Upsert writes a pick. A resolved pick is never overwritten.
func (r *BattleRepository) Upsert(ctx context.Context, item battle.Battle) error {
	submittedAt := item.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("battles", battleTableModel{
		MatchID:          item.MatchID,
		RoomID:           item.RoomID,
		UserID:           item.UserID,
		BattleType:       string(item.Type),
		PlayerID:         item.Player.PlayerID,
		PlayerName:       item.Player.Name,
		PlayerTeam:       item.Player.Team,
		Points:           item.Points,
		Resolved:         item.Resolved,
		ResolvedAt:       timePtrToNullTime(item.ResolvedAt),
		Changed:          item.Changed,
		ChangedAt:        timePtrToNullTime(item.ChangedAt),
		PreviousPlayerID: item.PreviousPlayerID,
		SubmittedAt:      submittedAt.UTC(),
	}, `ON CONFLICT (match_id, room_id, user_id, battle_type)
DO UPDATE SET
    player_id = EXCLUDED.player_id,
    player_name = EXCLUDED.player_name,
    player_team = EXCLUDED.player_team,
    submitted_at = EXCLUDED.submitted_at
WHERE battles.resolved = FALSE`)
	if err != nil {
		return fmt.Errorf("build upsert battle query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert battle match=%s user=%s type=%s: %w", item.MatchID, item.UserID, item.Type, err)
	}
	return nil
}

func (r *BattleRepository) ListGlobalByMatch(ctx context.Context, matchID string) ([]battle.Battle, error) {
	return r.listByRoom(ctx, matchID, "")
}

func (r *BattleRepository) ListByRoom(ctx context.Context, matchID, roomID string) ([]battle.Battle, error) {
	return r.listByRoom(ctx, matchID, roomID)
}

func (r *BattleRepository) ListRoomIDsByMatch(ctx context.Context, matchID string) ([]string, error) {
	query, args, err := qb.Select("DISTINCT room_id").From("battles").
		Where(qb.Eq("match_id", matchID), qb.Expr("room_id <> ''")).
		OrderBy("room_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list battle rooms query: %w", err)
	}

	var out []string
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &out, query, args...); err != nil {
		return nil, fmt.Errorf("list battle rooms: %w", err)
	}
	return out, nil
}

func (r *BattleRepository) CountChangedGlobal(ctx context.Context, matchID, userID string) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("battles").
		Where(
			qb.Eq("match_id", matchID),
			qb.EqLiteral("room_id", ""),
			qb.Eq("user_id", userID),
			qb.Expr("changed = TRUE"),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count changed battles query: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &count, query, args...); err != nil {
		return 0, fmt.Errorf("count changed battles: %w", err)
	}
	return count, nil
}

func (r *BattleRepository) Resolve(ctx context.Context, key battle.Key, points int, resolvedAt time.Time) (bool, error) {
	conditions := append(keyConditions(key), qb.Expr("resolved = FALSE"))
	query, args, err := qb.Update("battles").
		Set("points", points).
		Set("resolved", true).
		Set("resolved_at", resolvedAt.UTC()).
		Where(conditions...).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build resolve battle query: %w", err)
	}

	result, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("resolve battle user=%s type=%s: %w", key.UserID, key.Type, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows resolve battle: %w", err)
	}
	return affected > 0, nil
}

// ApplyChange locks the user's global picks for the match, recounts the
// changes already made and flips the target pick only while it is unchanged.
// A concurrent change waits on the row locks and sees the committed count.
func (r *BattleRepository) ApplyChange(ctx context.Context, key battle.Key, player battle.SelectedPlayer, changedAt time.Time, maxChanges int) (battle.Battle, error) {
	var out battle.Battle
	err := withinTx(ctx, r.db, func(ctx context.Context, q sqlx.ExtContext) error {
		lockQuery, lockArgs, err := qb.Select("*").From("battles").
			Where(qb.Eq("match_id", key.MatchID), qb.EqLiteral("room_id", ""), qb.Eq("user_id", key.UserID)).
			OrderBy("battle_type").
			ForUpdate().
			ToSQL()
		if err != nil {
			return fmt.Errorf("build lock battles query: %w", err)
		}
		var rows []battleTableModel
		if err := sqlx.SelectContext(ctx, q, &rows, lockQuery, lockArgs...); err != nil {
			return fmt.Errorf("lock battles match=%s user=%s: %w", key.MatchID, key.UserID, err)
		}
		used := 0
		for _, row := range rows {
			if row.Changed {
				used++
			}
		}
		if used >= maxChanges {
			return fmt.Errorf("%w: used=%d allowed=%d", battle.ErrChangesExhausted, used, maxChanges)
		}

		query, args, err := qb.Update("battles").
			SetExpr("previous_player_id", "player_id").
			Set("player_id", player.PlayerID).
			Set("player_name", player.Name).
			Set("player_team", player.Team).
			Set("changed", true).
			Set("changed_at", changedAt.UTC()).
			Where(append(keyConditions(key), qb.Expr("changed = FALSE"))...).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build change battle query: %w", err)
		}
		result, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("change battle user=%s type=%s: %w", key.UserID, key.Type, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows change battle: %w", err)
		}

		current, exists, err := r.Get(ctx, key)
		if err != nil {
			return err
		}
		switch {
		case !exists:
			return fmt.Errorf("%w: user=%s type=%s", battle.ErrPickNotFound, key.UserID, key.Type)
		case affected == 0:
			return fmt.Errorf("%w: type=%s", battle.ErrAlreadyChanged, key.Type)
		}
		out = current
		return nil
	})
	if err != nil {
		return battle.Battle{}, err
	}
	return out, nil
}

func (r *BattleRepository) listByRoom(ctx context.Context, matchID, roomID string) ([]battle.Battle, error) {
	query, args, err := qb.Select("*").From("battles").
		Where(qb.Eq("match_id", matchID), qb.Eq("room_id", roomID)).
		OrderBy("user_id", "battle_type").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list battles query: %w", err)
	}

	var rows []battleTableModel
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list battles match=%s room=%s: %w", matchID, roomID, err)
	}

	out := make([]battle.Battle, 0, len(rows))
	for _, row := range rows {
		out = append(out, battleFromRow(row))
	}
	return out, nil
}

func keyConditions(key battle.Key) []qb.Condition {
	return []qb.Condition{
		qb.Eq("match_id", key.MatchID),
		qb.Eq("room_id", key.RoomID),
		qb.Eq("user_id", key.UserID),
		qb.Eq("battle_type", string(key.Type)),
	}
}

func battleFromRow(row battleTableModel) battle.Battle {
	return battle.Battle{
		MatchID: row.MatchID,
		RoomID:  row.RoomID,
		UserID:  row.UserID,
		Type:    battle.Type(row.BattleType),
		Player: battle.SelectedPlayer{
			PlayerID: row.PlayerID,
			Name:     row.PlayerName,
			Team:     row.PlayerTeam,
		},
		Points:           row.Points,
		Resolved:         row.Resolved,
		ResolvedAt:       nullTimeToTimePtr(row.ResolvedAt),
		Changed:          row.Changed,
		ChangedAt:        nullTimeToTimePtr(row.ChangedAt),
		PreviousPlayerID: row.PreviousPlayerID,
		SubmittedAt:      row.SubmittedAt.UTC(),
	}
}
