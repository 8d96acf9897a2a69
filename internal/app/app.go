package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/cricket-battle/external/anubis"
	"github.com/riskibarqy/cricket-battle/external/cricketprovider"
	"github.com/riskibarqy/cricket-battle/external/jobqueue"
	"github.com/riskibarqy/cricket-battle/external/push"
	"github.com/riskibarqy/cricket-battle/internal/config"
	"github.com/riskibarqy/cricket-battle/internal/domain/battle"
	"github.com/riskibarqy/cricket-battle/internal/domain/notification"
	"github.com/riskibarqy/cricket-battle/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/cricket-battle/internal/platform/id"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/riskibarqy/cricket-battle/internal/platform/resilience"
	"github.com/riskibarqy/cricket-battle/internal/usecase"
)

// App holds the HTTP server and the background match sync loop.
type App struct {
	Server *http.Server

	matchSync    *usecase.MatchSyncService
	syncInterval time.Duration
	stores       stores
	logger       *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	st, err := buildStores(ctx, cfg, time.Now(), logger)
	if err != nil {
		return nil, err
	}

	provider, err := cricketprovider.New(cfg.ScoreProvider, cricketprovider.Config{
		BaseURL:        cfg.ScoreProviderBaseURL,
		APIKey:         cfg.ScoreProviderAPIKey,
		Timeout:        cfg.ScoreProviderTimeout,
		MaxRetries:     cfg.ScoreProviderMaxRetries,
		Logger:         logger,
		CircuitBreaker: circuitConfig(cfg.ScoreProviderCircuit),
	})
	if err != nil {
		_ = st.close()
		return nil, fmt.Errorf("build score provider: %w", err)
	}

	var gateway notification.PushGateway = push.NewLogGateway(logger)
	if cfg.PushEnabled {
		gateway = push.NewHTTPGateway(push.Config{
			Endpoint:       cfg.PushEndpoint,
			ServerKey:      cfg.PushServerKey,
			Timeout:        cfg.PushTimeout,
			MaxConns:       cfg.NotifyConcurrency,
			CircuitBreaker: circuitConfig(cfg.PushCircuit),
		}, logger)
	}
	notifier := usecase.NewNotificationDispatcher(st.users, gateway, cfg.NotifyConcurrency, logger)

	leaderboardSvc := usecase.NewLeaderboardService(st.boards, logger)

	var queue usecase.JobQueue = usecase.NewLocalJobQueue(leaderboardSvc)
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   circuitConfig(cfg.QStashCircuit),
		}, logger)
	}

	lockSvc := usecase.NewPredictionLockService(st.matches, st.predictions, notifier, logger)
	overScoring := usecase.NewOverScoringService(st.predictions, leaderboardSvc, st.tx, cfg.ScoringWorkers, logger)
	resolution := usecase.NewBattleResolutionService(
		st.battles,
		st.users,
		leaderboardSvc,
		battle.NewPerformanceScorer(),
		notifier,
		queue,
		st.tx,
		cfg.ScoringWorkers,
		logger,
	)
	watcher := usecase.NewMatchWatcher(lockSvc, overScoring, resolution, logger)

	var publisher usecase.MatchChangePublisher = usecase.NewInProcessChangePublisher(watcher)
	if cfg.QStashEnabled {
		publisher = usecase.NewQueueChangePublisher(queue)
	}
	matchSync := usecase.NewMatchSyncService(provider, st.matches, publisher, logger)

	handler := httpapi.NewHandler(
		usecase.NewSubmissionService(st.matches, st.predictions, st.battles, st.users, logger),
		usecase.NewBattleChangeService(st.matches, st.battles, st.boards, st.users, st.tx, logger),
		usecase.NewCrownService(st.users, st.matches, st.champions, leaderboardSvc, notifier, logger),
		leaderboardSvc,
		matchSync,
		watcher,
		st.dispatches,
		idgen.NewUUIDGenerator("manual"),
		logger,
	)

	verifier := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		anubis.ClientConfig{
			BaseURL:        cfg.AnubisBaseURL,
			IntrospectPath: cfg.AnubisIntrospectURL,
			AdminKey:       cfg.AnubisAdminKey,
			Timeout:        cfg.AnubisTimeout,
			PrincipalTTL:   cfg.AnubisPrincipalTTL,
			CircuitBreaker: circuitConfig(cfg.AnubisCircuit),
		},
		logger,
	)

	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		Verifier:           verifier,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	}, logger)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		matchSync:    matchSync,
		syncInterval: cfg.MatchSyncInterval,
		stores:       st,
		logger:       logger,
	}, nil
}

// RunMatchSync polls the score provider until ctx is cancelled. With QStash
// enabled an external schedule can call the sync route instead; both paths
// are safe to run together because every handler is idempotent.
func (a *App) RunMatchSync(ctx context.Context) {
	if a.syncInterval <= 0 {
		return
	}

	ticker := time.NewTicker(a.syncInterval)
	defer ticker.Stop()

	a.syncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.syncOnce(ctx)
		}
	}
}

func (a *App) syncOnce(ctx context.Context) {
	result, err := a.matchSync.SyncMatches(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "scheduled match sync failed", "error", err)
		return
	}
	if !result.Success {
		a.logger.WarnContext(ctx, "scheduled match sync upstream failure", "provider", result.Provider, "error", result.Error)
	}
}

func (a *App) Close() error {
	return a.stores.close()
}

func circuitConfig(c config.CircuitConfig) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          c.Enabled,
		FailureThreshold: c.FailureCount,
		OpenTimeout:      c.OpenTimeout,
		HalfOpenMaxReq:   c.HalfOpenMaxReq,
	}
}
