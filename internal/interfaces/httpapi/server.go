package httpapi

import (
	"net/http"

	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
)

// RouterConfig carries the knobs NewRouter needs beyond the handler itself.
type RouterConfig struct {
	Verifier           TokenVerifier
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	InternalJobToken   string
}

type access int

const (
	public access = iota
	authorized
	internalJob
)

type route struct {
	pattern string
	access  access
	handle  http.HandlerFunc
}

func (h *Handler) routes(swagger bool) []route {
	out := []route{
		{"GET /healthz", public, h.Healthz},
		{"GET /v1/matches/{matchID}/leaderboard", public, h.GetLeaderboard},

		{"PUT /v1/matches/{matchID}/prediction", authorized, h.SubmitPrediction},
		{"PUT /v1/matches/{matchID}/battles", authorized, h.SubmitBattlePick},
		{"POST /v1/battles/change-rules", authorized, h.EnforceBattleChangeRules},
		{"POST /v1/battles/change", authorized, h.ChangeBattlePick},
		{"POST /v1/battles/progress", authorized, h.UpdateBattleProgress},
		{"POST /v1/quiz/progress", authorized, h.UpdateQuizProgress},
		{"POST /v1/crowns/match-champion", authorized, h.AssignMatchChampionCrown},

		{"POST " + jobPathSyncMatches, internalJob, h.RunSyncMatchesJob},
		{"POST " + jobPathRankLeaderboards, internalJob, h.RunRankLeaderboardsJob},
		{"POST " + jobPathMatchUpdated, internalJob, h.HandleMatchUpdatedTrigger},
	}
	if swagger {
		out = append(out,
			route{"GET /openapi.yaml", public, h.OpenAPI},
			route{"GET /docs", public, h.SwaggerUI},
		)
	}
	return out
}

func NewRouter(handler *Handler, cfg RouterConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	for _, rt := range handler.routes(cfg.SwaggerEnabled) {
		var next http.Handler = rt.handle
		switch rt.access {
		case authorized:
			next = RequireAuth(cfg.Verifier, next)
		case internalJob:
			next = RequireInternalJobToken(cfg.InternalJobToken, next)
		}
		mux.Handle(rt.pattern, next)
	}

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
