// Package observability starts the process-wide tracing and profiling sinks.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/cricket-battle/internal/config"
	"github.com/riskibarqy/cricket-battle/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

type stopper struct {
	name string
	stop func(context.Context) error
}

// Runtime owns every sink that Start enabled. Shutdown stops them in reverse
// start order.
type Runtime struct {
	logger   *logging.Logger
	stoppers []stopper
}

// Start enables Uptrace tracing, Pyroscope profiling and the pprof listener
// according to cfg. Disabled sinks are skipped. On error the sinks already
// started are stopped before returning.
func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{logger: logger}

	for _, start := range []func(config.Config) error{rt.startTracing, rt.startProfiling, rt.startPprof} {
		if err := start(cfg); err != nil {
			_ = rt.Shutdown(context.Background())
			return nil, err
		}
	}
	return rt, nil
}

func (rt *Runtime) Shutdown(ctx context.Context) error {
	if rt == nil {
		return nil
	}
	var errs []error
	for i := len(rt.stoppers) - 1; i >= 0; i-- {
		s := rt.stoppers[i]
		if err := s.stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", s.name, err))
			continue
		}
		rt.logger.Info("observability sink stopped", "sink", s.name)
	}
	rt.stoppers = nil
	return errors.Join(errs...)
}

func (rt *Runtime) startTracing(cfg config.Config) error {
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		rt.logger.Info("uptrace disabled", "enabled", cfg.UptraceEnabled)
		return nil
	}
	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)
	rt.stoppers = append(rt.stoppers, stopper{"uptrace", uptrace.Shutdown})
	rt.logger.Info("uptrace enabled", "service_name", cfg.ServiceName, "environment", cfg.AppEnv)
	return nil
}

var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexCount,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockCount,
	pyroscope.ProfileBlockDuration,
}

func (rt *Runtime) startProfiling(cfg config.Config) error {
	if !cfg.PyroscopeEnabled {
		rt.logger.Info("pyroscope disabled")
		return nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              map[string]string{"env": cfg.AppEnv, "service": cfg.ServiceName},
		ProfileTypes:      profileTypes,
	})
	if err != nil {
		return fmt.Errorf("start pyroscope: %w", err)
	}
	rt.stoppers = append(rt.stoppers, stopper{"pyroscope", func(context.Context) error { return profiler.Stop() }})
	rt.logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return nil
}

func (rt *Runtime) startPprof(cfg config.Config) error {
	if !cfg.PprofEnabled {
		rt.logger.Info("pprof disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	srv := &http.Server{Addr: cfg.PprofAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		rt.logger.Info("pprof server starting", "addr", cfg.PprofAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("pprof server failed", "error", err)
		}
	}()
	rt.stoppers = append(rt.stoppers, stopper{"pprof", srv.Shutdown})
	return nil
}
