package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/memory"
)

// BootstrapSeed fills an empty database with the demo fixtures used by the
// memory backend. A database that already holds matches is left alone.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM matches`); err != nil {
		return fmt.Errorf("count matches for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	matches := NewMatchRepository(db)
	users := NewUserRepository(db)

	return withinTx(ctx, db, func(ctx context.Context, _ sqlx.ExtContext) error {
		for _, m := range memory.SeedMatches(now) {
			if _, _, err := matches.Upsert(ctx, m); err != nil {
				return fmt.Errorf("seed match %s: %w", m.ID, err)
			}
		}
		for _, u := range memory.SeedUsers(now) {
			if err := users.Upsert(ctx, u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
		return nil
	})
}
