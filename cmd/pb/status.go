package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/metrics"
	"github.com/zulandar/planboard/internal/models"
)

var (
	headerColor   = color.New(color.FgMagenta, color.Bold)
	activeColor   = color.New(color.FgCyan, color.Bold)
	completeColor = color.New(color.FgGreen)
	plannedColor  = color.New(color.FgYellow)
	warnColor     = color.New(color.FgRed, color.Bold)
)

func newStatusCmd(configPath *string) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sprint progress",
		Long:  "Loads the project once and prints completion, the current sprint and a line per sprint with its goal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, *configPath, width)
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 80, "wrap sprint goals at this column")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath string, width int) error {
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

	state := a.reader.State()
	writeStatus(cmd.OutOrStdout(), state.Backlog, a.reader.Stats(), width)
	return nil
}

// writeStatus renders the status report for backlog.
func writeStatus(out io.Writer, backlog *models.BacklogDocument, stats metrics.Stats, width int) {
	name := "Planboard"
	if backlog != nil && backlog.ProjectName != "" {
		name = backlog.ProjectName
	}
	headerColor.Fprintln(out, name)

	if backlog == nil || len(backlog.Sprints) == 0 {
		fmt.Fprintln(out, "No sprints found.")
		return
	}

	fmt.Fprintf(out, "Tickets: %d/%d done (%d%%)  Points: %d/%d\n",
		stats.CompletedTickets, stats.TotalTickets, stats.CompletionPercentage,
		stats.CompletedPoints, stats.TotalPoints)
	if stats.BlockedTickets > 0 {
		warnColor.Fprintf(out, "Blocked: %d\n", stats.BlockedTickets)
	}
	if sp := stats.CurrentSprint; sp != nil {
		fmt.Fprintf(out, "Current sprint: %d %s\n", sp.Number, sp.Name)
	}
	fmt.Fprintln(out)

	goalWidth := width - 4
	if goalWidth < 20 {
		goalWidth = 20
	}
	for _, sp := range backlog.Sprints {
		done := 0
		for _, t := range sp.Tickets {
			if t.Status == models.StatusDone {
				done++
			}
		}
		total, donePts := sp.Points()
		fmt.Fprintf(out, "Sprint %d  %s  %s  %d/%d tickets, %d/%d pts\n",
			sp.Number, sp.Name, sprintStatusColor(sp.Status).Sprintf("[%s]", sp.Status),
			done, len(sp.Tickets), donePts, total)
		if sp.Goal != "" {
			fmt.Fprintln(out, indent.String(wordwrap.String(sp.Goal, goalWidth), 4))
		}
	}

	if open := openBugs(backlog.Bugs); open > 0 {
		fmt.Fprintln(out)
		warnColor.Fprintf(out, "Open bugs: %d\n", open)
	}
}

func sprintStatusColor(s models.SprintStatus) *color.Color {
	switch s {
	case models.SprintActive:
		return activeColor
	case models.SprintComplete:
		return completeColor
	default:
		return plannedColor
	}
}

func openBugs(bugs []models.Ticket) int {
	n := 0
	for _, b := range bugs {
		if b.Status != models.StatusDone {
			n++
		}
	}
	return n
}
