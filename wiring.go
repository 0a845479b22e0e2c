package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/feedsync"
	"github.com/CrestNiraj12/novaterm/infra/auth"
	"github.com/CrestNiraj12/novaterm/infra/config"
	"github.com/CrestNiraj12/novaterm/infra/logging"
	"github.com/CrestNiraj12/novaterm/infra/novacom"
)

const demoChatterInterval = 4 * time.Second

type rootOptions struct {
	demo        bool
	metricsAddr string
}

// stack is everything a command needs once configuration is resolved.
type stack struct {
	cfg      config.Config
	log      *zap.Logger
	caller   novacom.Caller
	viewerID string
	registry *prometheus.Registry
	metrics  *feedsync.Metrics
	closers  []func()
}

// setup loads configuration and builds the backend connection. When
// needViewer is set, a logged-in session (or demo mode) is required.
func setup(ctx context.Context, opts *rootOptions, needViewer bool) (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	rt := &stack{cfg: cfg, log: log, closers: []func(){closeLog}}

	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rt.metrics = feedsync.NewMetrics(rt.registry)

	var viewer app.ViewerSource = auth.NewFileSession(cfg.SessionPath)
	switch {
	case opts.demo:
		b := novacom.NewDemoBackend()
		chatterCtx, cancel := context.WithCancel(ctx)
		b.StartChatter(chatterCtx, demoChatterInterval)
		rt.closers = append(rt.closers, cancel)
		rt.caller = b
		viewer = auth.StaticViewer(novacom.DemoViewerID)
		log.Info("using demo backend")
	case cfg.BackendExec != "":
		rt.caller = novacom.NewExecCaller(cfg.BackendExec, log)
		log.Info("using backend executable", zap.String("path", cfg.BackendExec))
	default:
		rt.caller = novacom.NewHTTPCaller(cfg.BridgeURL, cfg.FetchTimeout, log)
		log.Info("using bridge", zap.String("url", cfg.BridgeURL))
	}

	if needViewer {
		id, err := viewer.ViewerID()
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.viewerID = id
	}

	addr := opts.metricsAddr
	if addr == "" {
		addr = cfg.MetricsAddr
	}
	if addr != "" {
		rt.serveMetrics(addr)
	}
	return rt, nil
}

func (rt *stack) controller() *feedsync.Controller {
	return feedsync.NewController(feedsync.Deps{
		Feed:      novacom.NewFeedService(rt.caller, rt.viewerID),
		Mutations: novacom.NewMutationService(rt.caller, rt.viewerID),
		Config: feedsync.Config{
			PageSize:     rt.cfg.PageSize,
			PollInterval: rt.cfg.PollInterval,
			FetchTimeout: rt.cfg.FetchTimeout,
		},
		Logger:  rt.log,
		Metrics: rt.metrics,
	})
}

func (rt *stack) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	rt.log.Info("serving metrics", zap.String("addr", addr))
	rt.closers = append(rt.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

// Close releases resources in reverse order of acquisition.
func (rt *stack) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
