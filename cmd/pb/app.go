package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zulandar/planboard/internal/classify"
	"github.com/zulandar/planboard/internal/config"
	"github.com/zulandar/planboard/internal/hub"
	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/parser"
	"github.com/zulandar/planboard/internal/query"
	"github.com/zulandar/planboard/internal/store"
	"github.com/zulandar/planboard/internal/syncer"
	"github.com/zulandar/planboard/internal/watch"
)

// app bundles the components every subcommand shares: one store, one hub,
// one synchronization service and a query reader over them.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *store.Store
	hub    *hub.Hub
	syncer *syncer.Service
	reader *query.Reader
}

// loadConfig reads the config and initializes logging from it.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.Init(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func classifierFor(cfg *config.Config) classify.Classifier {
	return classify.Classifier{
		Root:        cfg.Root,
		BacklogFile: cfg.BacklogFile,
		SprintsDir:  cfg.SprintsDir,
		SpecsDir:    cfg.SpecsDir,
		PromptsDir:  cfg.PromptsDir,
	}
}

// newApp wires the shared components. The store stays empty until load or
// startSync runs the first full scan.
func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	st := store.New(nil)
	h := hub.New(hub.Opts{Source: st, Logger: log})
	svc, err := syncer.New(syncer.Opts{
		Classifier: classifierFor(cfg),
		Store:      st,
		Hub:        h,
		Parser: parser.Options{
			BugPrefix:     cfg.Parser.BugPrefix,
			FallbackLimit: cfg.Parser.RequirementFallbackLimit,
		},
		ResyncCron: cfg.Watch.ResyncCron,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		store:  st,
		hub:    h,
		syncer: svc,
		reader: query.New(query.Opts{
			Source:      st,
			SpecErrors:  svc,
			ScreensRole: cfg.Query.ScreensRole,
		}),
	}, nil
}

// load runs one full scan for the one-shot commands.
func (a *app) load() {
	a.syncer.Load()
}

// startSync registers the file watches, runs the first full scan, then runs
// the synchronization loop until ctx is cancelled. Writes landing during the
// scan are queued by the watcher and applied afterwards. The returned
// channel closes when the loop has stopped.
func (a *app) startSync(ctx context.Context) (<-chan struct{}, error) {
	w, err := watch.New(watch.Opts{
		Classifier: classifierFor(a.cfg),
		Debounce:   a.cfg.DebounceDuration(),
		Logger:     a.log,
	})
	if err != nil {
		return nil, err
	}
	changes := w.Run(ctx)
	a.syncer.Load()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.syncer.Run(ctx, changes, w.Errors()); err != nil {
			a.log.Error("sync loop stopped", "error", err)
		}
	}()
	return done, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			if onSignal != nil {
				onSignal(sig)
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
