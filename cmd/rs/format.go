package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/zulandar/railsection/internal/dashboard"
	"github.com/zulandar/railsection/internal/models"
	"golang.org/x/term"
)

// isTerminal reports whether out is an interactive terminal.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of out, or 0 when it is not a terminal.
func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

func statusColor(s models.TrainStatus) string {
	switch s {
	case models.StatusOnTime, models.StatusDeparting:
		return ansiGreen
	case models.StatusDelayed:
		return ansiRed
	case models.StatusApproaching:
		return ansiCyan
	case models.StatusStopped, models.StatusSiding:
		return ansiYellow
	}
	return ""
}

func severityColor(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	}
	return ""
}

func paint(s, color string, enabled bool) string {
	if !enabled || color == "" {
		return s
	}
	return color + s + ansiReset
}

// printState renders a state view: trains, stations with platform
// occupancy, then live advisories with their time left.
func printState(out io.Writer, v dashboard.StateView, color bool) {
	w := v.World
	if w == nil {
		w = &models.World{}
	}
	width := terminalWidth(out)

	fmt.Fprintf(out, "Version %d at %s\n\n", v.Version, v.ServerTime.Format(time.TimeOnly))

	trains := slices.Clone(w.Trains)
	slices.SortStableFunc(trains, func(a, b models.Train) int {
		switch {
		case a.Progress < b.Progress:
			return -1
		case a.Progress > b.Progress:
			return 1
		}
		return 0
	})

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRAIN\tTYPE\tSTATUS\tDIR\tKM\tKM/H\tTRACK\tLOCATION\tNEXT")
	for _, t := range trains {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%.0f\t%s\t%s\t%s\n",
			t.Label(), t.Type, paint(string(t.Status), statusColor(t.Status), color),
			shortDirection(t.Direction), t.Progress, t.Speed, t.Track, t.CurrentLocation, t.NextStop)
	}
	tw.Flush()

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATION\tKM\tSIDING\tPLATFORMS\tOCCUPIED")
	for _, s := range w.Stations {
		siding := "no"
		if s.HasSiding {
			siding = "yes"
		}
		fmt.Fprintf(tw, "%s\t%.0f\t%s\t%d\t%s\n", s.Name, s.Position, siding, s.PlatformTracks, intList(v.PlatformOccupancy[s.Name]))
	}
	tw.Flush()

	left := make(map[string]time.Duration, len(v.Timers))
	for _, timer := range v.Timers {
		left[timer.ID] = max(0, timer.ExpiresAt.Sub(v.ServerTime)).Round(time.Second)
	}

	fmt.Fprintln(out)
	if len(w.Alerts) == 0 && len(w.Recommendations) == 0 {
		fmt.Fprintln(out, "No active alerts or recommendations.")
		return
	}
	for _, a := range w.Alerts {
		line := fmt.Sprintf("[%s] %s (%s left)", a.Severity, a.Message, left[a.ID])
		fmt.Fprintln(out, paint(truncate(line, width), severityColor(a.Severity), color))
		for _, act := range a.SuggestedActions {
			fmt.Fprintf(out, "    %s\n", describeAction(act))
		}
	}
	for _, r := range w.Recommendations {
		line := fmt.Sprintf("[Rec] %s: %s (%s left)", r.Title, r.Reason, left[r.ID])
		fmt.Fprintln(out, truncate(line, width))
		for _, act := range r.Actions {
			fmt.Fprintf(out, "    %s\n", describeAction(act))
		}
	}
}

func shortDirection(d models.Direction) string {
	switch d {
	case models.Eastbound:
		return "E"
	case models.Westbound:
		return "W"
	}
	return string(d)
}

func describeAction(a models.Action) string {
	s := fmt.Sprintf("%s %s", a.Command, a.TrainID)
	if a.StationName != "" {
		s += " @ " + a.StationName
	}
	if a.Platform > 0 {
		s += fmt.Sprintf(" platform %d", a.Platform)
	}
	if a.DisplayText != "" {
		s = a.DisplayText + " (" + s + ")"
	}
	return s
}

func intList(ns []int) string {
	if len(ns) == 0 {
		return "-"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ",")
}

// truncate shortens s to width runes. A width of 0 or less leaves s as is.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
