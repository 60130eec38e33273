package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/planboard/internal/logging"
)

// isTerminal reports whether w is an interactive terminal. Tests override it.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newSnapshotCmd(configPath *string) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the project state as JSON",
		Long:  "Loads every artifact once and prints the resulting project state. Output is indented on a terminal or with --pretty.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, *configPath, pretty)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func runSnapshot(cmd *cobra.Command, configPath string, pretty bool) error {
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
	a.load()

	out := cmd.OutOrStdout()
	state := a.reader.State()
	var data []byte
	if pretty || isTerminal(out) {
		data, err = json.MarshalIndent(state, "", "  ")
	} else {
		data, err = json.Marshal(state)
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	fmt.Fprintf(out, "%s\n", data)
	return nil
}
