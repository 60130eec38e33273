package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/mcptools"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the project query tools over MCP (stdio)",
		Long: "Runs an MCP server on stdin/stdout exposing sprints, tickets, specs, screens and " +
			"metrics as tools. The project stays in sync with the files while it runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(*configPath)
		},
	}
}

func runMCP(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logging.Close()

	a, err := newApp(cfg, logging.Logger())
	if err != nil {
		return err
	}
	defer a.hub.Close()

	// Stdout belongs to the MCP transport; nothing else may write to it.
	ctx, cancel := signalContext(nil)
	defer cancel()
	syncDone, err := a.startSync(ctx)
	if err != nil {
		return err
	}

	err = server.ServeStdio(mcptools.NewServer(a.reader, Version))
	cancel()
	<-syncDone
	return err
}
