package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/cricket-battle/internal/config"
	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/domain/jobscheduler"
	"github.com/riskibarqy/cricket-battle/internal/domain/leaderboard"
	"github.com/riskibarqy/cricket-battle/internal/domain/match"
	"github.com/riskibarqy/cricket-battle/internal/domain/prediction"
	"github.com/riskibarqy/cricket-battle/internal/domain/user"
	cacherepo "github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/cricket-battle/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/cricket-battle/internal/platform/cache"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

type stores struct {
	matches     match.Repository
	predictions prediction.Repository
	battles     battle.Repository
	boards      leaderboard.Repository
	users       user.Repository
	champions   user.ChampionLedger
	dispatches  jobscheduler.Repository
	tx          usecase.TxRunner
	db          *sqlx.DB
}

func (s stores) close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildStores(ctx context.Context, cfg config.Config, now time.Time, logger *logging.Logger) (stores, error) {
	var out stores

	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return stores{}, err
		}
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return stores{}, err
		}
		out = stores{
			matches:     postgres.NewMatchRepository(db),
			predictions: postgres.NewPredictionRepository(db),
			battles:     postgres.NewBattleRepository(db),
			boards:      postgres.NewLeaderboardRepository(db),
			users:       postgres.NewUserRepository(db),
			champions:   postgres.NewChampionLedger(db),
			dispatches:  postgres.NewJobDispatchRepository(db),
			tx:          postgres.NewTxManager(db),
			db:          db,
		}
		logger.Info("store backend ready", "backend", cfg.StoreBackend, "db_name", dbNameFromURL(cfg.DBURL))
	default:
		out = stores{
			matches:     memory.NewMatchRepository(memory.SeedMatches(now)...),
			predictions: memory.NewPredictionRepository(),
			battles:     memory.NewBattleRepository(),
			boards:      memory.NewLeaderboardRepository(),
			users:       memory.NewUserRepository(memory.SeedUsers(now)...),
			champions:   memory.NewChampionLedger(),
			dispatches:  memory.NewJobDispatchRepository(),
			tx:          usecase.NewDirectTxRunner(),
		}
		logger.Info("store backend ready", "backend", config.StoreMemory)
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		out.matches = cacherepo.NewMatchRepository(out.matches, store)
		out.boards = cacherepo.NewLeaderboardRepository(out.boards, store)
	}
	return out, nil
}
