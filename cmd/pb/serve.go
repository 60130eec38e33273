package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zulandar/planboard/internal/config"
	"github.com/zulandar/planboard/internal/dashboard"
	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/telegraph"
	discordadapter "github.com/zulandar/planboard/internal/telegraph/discord"
	slackadapter "github.com/zulandar/planboard/internal/telegraph/slack"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		port       int
		noNotifier bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the project and serve the dashboard API",
		Long: "Loads the project, keeps it in sync with the files, and serves JSON queries, " +
			"SSE and WebSocket updates. Starts the chat notifier when one is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configPath, port, noNotifier)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides dashboard.port)")
	cmd.Flags().BoolVar(&noNotifier, "no-notifier", false, "do not start the chat notifier")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, noNotifier bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logging.Close()
	if port > 0 {
		cfg.Dashboard.Port = port
	}

	log := logging.Logger()
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.hub.Close()

	out := cmd.OutOrStdout()
	ctx, cancel := signalContext(func(sig os.Signal) {
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
	})
	defer cancel()

	syncDone, err := a.startSync(ctx)
	if err != nil {
		return err
	}

	notifierDone := make(chan struct{})
	if cfg.Notifier.Platform != "" && !noNotifier {
		daemon, err := newNotifier(cfg, a, out)
		if err != nil {
			return err
		}
		go func() {
			defer close(notifierDone)
			if err := daemon.Run(ctx); err != nil {
				log.Error("notifier stopped", "error", err)
			}
		}()
	} else {
		close(notifierDone)
	}

	err = dashboard.Start(ctx, dashboard.StartOpts{
		Reader:    a.reader,
		Hub:       a.hub,
		Host:      cfg.Dashboard.Host,
		Port:      cfg.Dashboard.Port,
		Heartbeat: cfg.HeartbeatDuration(),
		Out:       out,
		Logger:    log,
	})
	cancel()
	<-syncDone
	<-notifierDone
	return err
}

// newNotifier builds the notifier daemon for the configured platform.
func newNotifier(cfg *config.Config, a *app, out io.Writer) (*telegraph.Daemon, error) {
	adapter, err := createAdapter(cfg.Notifier)
	if err != nil {
		return nil, err
	}
	return telegraph.NewDaemon(telegraph.DaemonOpts{
		Config:  cfg.Notifier,
		Adapter: adapter,
		Hub:     a.hub,
		Source:  a.store,
		Out:     out,
		Logger:  a.log,
	})
}

// createAdapter builds a platform adapter from the notifier config.
func createAdapter(cfg config.NotifierConfig) (telegraph.Adapter, error) {
	switch cfg.Platform {
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Channel,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Channel,
		})
	default:
		return nil, fmt.Errorf("telegraph: unsupported platform %q", cfg.Platform)
	}
}
