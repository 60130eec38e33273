package telegraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zulandar/planboard/internal/config"
	"github.com/zulandar/planboard/internal/hub"
	"github.com/zulandar/planboard/internal/logging"
)

// Daemon is the notifier process. It watches the hub for project events and
// posts them, plus an optional scheduled digest, through an Adapter.
type Daemon struct {
	cfg     config.NotifierConfig
	adapter Adapter
	hub     *hub.Hub
	source  hub.Snapshotter
	out     io.Writer
	log     *slog.Logger
	now     func() time.Time
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	Config  config.NotifierConfig
	Adapter Adapter
	Hub     *hub.Hub
	Source  hub.Snapshotter // snapshot read by the digest
	Out     io.Writer       // defaults to os.Stdout
	Logger  *slog.Logger    // defaults to logging.Logger()
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("telegraph: adapter is required")
	}
	if opts.Hub == nil {
		return nil, fmt.Errorf("telegraph: hub is required")
	}
	if opts.Config.Digest.Enabled {
		if opts.Source == nil {
			return nil, fmt.Errorf("telegraph: digest requires a snapshot source")
		}
		if err := validateCron(opts.Config.Digest.Cron); err != nil {
			return nil, err
		}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = logging.Logger()
	}
	return &Daemon{
		cfg:     opts.Config,
		adapter: opts.Adapter,
		hub:     opts.Hub,
		source:  opts.Source,
		out:     out,
		log:     log.With("component", "telegraph"),
		now:     time.Now,
	}, nil
}

// Run connects the adapter, starts the watcher and digest scheduler, and
// blocks until the context is cancelled or the hub closes. On shutdown it
// closes the adapter gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Telegraph connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("telegraph: connect: %w", err)
	}

	watcher, err := NewWatcher(WatcherOpts{Hub: d.hub, Logger: d.log})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("telegraph: build watcher: %w", err)
	}
	eventsCh := watcher.Run(ctx)

	if d.cfg.Digest.Enabled {
		go d.runDigestScheduler(ctx)
	}

	fmt.Fprintf(d.out, "Telegraph online\n")
	if err := d.adapter.Send(ctx, OutboundMessage{ChannelID: d.cfg.Channel, Text: "Planboard notifier online"}); err != nil {
		d.log.Warn("send online message", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return d.shutdown()
		case event, ok := <-eventsCh:
			if !ok {
				return d.shutdown()
			}
			d.handleDetectedEvent(ctx, event)
		}
	}
}

func (d *Daemon) shutdown() error {
	fmt.Fprintf(d.out, "Telegraph shutting down...\n")
	if err := d.adapter.Send(context.Background(), OutboundMessage{ChannelID: d.cfg.Channel, Text: "Planboard notifier shutting down"}); err != nil {
		d.log.Warn("send shutdown message", "error", err)
	}
	if err := d.adapter.Close(); err != nil {
		d.log.Warn("close adapter", "error", err)
	}
	fmt.Fprintf(d.out, "Telegraph stopped\n")
	return nil
}

// handleDetectedEvent applies the event toggles, formats, and sends via the
// adapter.
func (d *Daemon) handleDetectedEvent(ctx context.Context, event DetectedEvent) {
	evtCfg := d.cfg.Events
	var formatted FormattedEvent

	switch event.Type {
	case EventTicketStatusChange:
		if !config.Enabled(evtCfg.TicketTransitions) {
			return
		}
		formatted = FormatTicketEvent(event)
	case EventSprintStatusChange:
		if !config.Enabled(evtCfg.SprintTransitions) {
			return
		}
		formatted = FormatSprintEvent(event)
	case EventLoadError:
		if !config.Enabled(evtCfg.LoadErrors) {
			return
		}
		formatted = FormatLoadError(event)
	case EventDigest:
		// Digests are not gated by event toggles.
		formatted = FormattedEvent{
			Title:    event.Title,
			Body:     event.Body,
			Severity: "info",
			Color:    ColorInfo,
		}
	default:
		return
	}

	if err := d.adapter.Send(ctx, OutboundMessage{
		ChannelID: d.cfg.Channel,
		Events:    []FormattedEvent{formatted},
	}); err != nil {
		d.log.Warn("send event", "type", event.Type, "error", err)
	}
}

// runDigestScheduler fires the digest on the configured cron schedule.
func (d *Daemon) runDigestScheduler(ctx context.Context) {
	wait := nextCronDuration(d.cfg.Digest.Cron, d.now())
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.fireDigest(ctx)
			if wait := nextCronDuration(d.cfg.Digest.Cron, d.now()); wait > 0 {
				timer.Reset(wait)
			}
		}
	}
}

// fireDigest builds and sends a single digest.
func (d *Daemon) fireDigest(ctx context.Context) {
	event := BuildDigest(d.source.Get(), d.now())
	if event == nil {
		// Empty backlog, nothing to report.
		return
	}
	d.handleDetectedEvent(ctx, *event)
}
