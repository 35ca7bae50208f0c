package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/ambient/internal/model"
	"github.com/jmylchreest/ambient/internal/playlist"
)

var statusOpts struct {
	json bool
	at   string
}

// WindowStatus is one playlist window as reported by the status command.
type WindowStatus struct {
	Name   string `json:"name"`
	Start  string `json:"start_time"`
	End    string `json:"end_time"`
	Files  int    `json:"files"`
	Bytes  int64  `json:"bytes"`
	Active bool   `json:"active"`
}

// StatusReport is the JSON document written by `ambient status --json`.
type StatusReport struct {
	Now      string         `json:"now"`
	Windows  []WindowStatus `json:"windows"`
	Skipped  []string       `json:"skipped,omitempty"`
	MinBreak int            `json:"min_break_seconds"`
	MaxBreak int            `json:"max_break_seconds"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the loaded playlist and which windows are active",
	Long: `Load the config and media directory exactly as the player would and
print every window, its clip count and whether it is active right now.

Windows that could not be loaded are listed with the reason.

Examples:
  ambient status
  ambient status --at 22:30
  ambient status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.json, "json", false,
		"Output JSON instead of a table")
	statusCmd.Flags().StringVar(&statusOpts.at, "at", "",
		"Evaluate windows at this time of day (HH:MM) instead of now")
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	if statusOpts.at != "" {
		tod, err := model.ParseTimeOfDay(statusOpts.at)
		if err != nil {
			return err
		}
		now = time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, 0, 0, time.Local)
	}

	pl, skipped := loadPlaylist()
	report := buildStatus(pl, skipped, now)
	report.MinBreak, report.MaxBreak = cfg.MinBreakSeconds, cfg.MaxBreakSeconds

	if statusOpts.json {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	renderStatus(os.Stdout, report)
	return nil
}

// buildStatus evaluates every window at now.
func buildStatus(pl *model.Playlist, skipped []playlist.Skipped, now time.Time) StatusReport {
	report := StatusReport{Now: now.Format("15:04:05")}

	for _, w := range pl.Windows {
		report.Windows = append(report.Windows, WindowStatus{
			Name:   w.Name,
			Start:  w.Start.String(),
			End:    w.End.String(),
			Files:  len(w.MediaFiles),
			Bytes:  totalSize(w.MediaFiles),
			Active: w.Contains(now),
		})
	}
	for _, s := range skipped {
		report.Skipped = append(report.Skipped, s.Error())
	}
	return report
}

// renderStatus writes a styled table.
func renderStatus(w io.Writer, report StatusReport) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))
	activeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true)
	idleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))
	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9"))

	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Windows at %s", report.Now)))

	if len(report.Windows) == 0 {
		_, _ = fmt.Fprintln(w, idleStyle.Render("  (playlist is empty)"))
	}

	nameWidth := 4
	for _, ws := range report.Windows {
		nameWidth = max(nameWidth, len(ws.Name))
	}

	for _, ws := range report.Windows {
		line := fmt.Sprintf("  %-*s  %s-%s  %3d files  %8s",
			nameWidth, ws.Name, ws.Start, ws.End, ws.Files, humanize.Bytes(uint64(ws.Bytes)))
		if ws.Active {
			_, _ = fmt.Fprintln(w, activeStyle.Render(line+"  active"))
		} else {
			_, _ = fmt.Fprintln(w, idleStyle.Render(line))
		}
	}

	if len(report.Skipped) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, headerStyle.Render("Skipped"))
		for _, s := range report.Skipped {
			_, _ = fmt.Fprintln(w, errorStyle.Render("  "+s))
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Break: %d-%d seconds\n", report.MinBreak, report.MaxBreak)
}

// totalSize sums file sizes, ignoring files that can no longer be read.
func totalSize(files []string) int64 {
	var total int64
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			total += info.Size()
		}
	}
	return total
}
