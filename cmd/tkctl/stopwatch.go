package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aelexs/timekeeper/pkg/protocol"
)

func newStopwatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stopwatch",
		Aliases: []string{"sw"},
		Short:   "Control the stopwatch",
	}

	for _, c := range []struct {
		use, short, method, path string
	}{
		{"status", "Show elapsed time and laps", http.MethodGet, "/v1/stopwatch"},
		{"start", "Start the stopwatch", http.MethodPost, "/v1/stopwatch/start"},
		{"stop", "Stop the stopwatch", http.MethodPost, "/v1/stopwatch/stop"},
		{"toggle", "Start if stopped, stop if running", http.MethodPost, "/v1/stopwatch/toggle"},
		{"lap", "Record a lap", http.MethodPost, "/v1/stopwatch/lap"},
		{"reset", "Stop and discard elapsed time and laps", http.MethodPost, "/v1/stopwatch/reset"},
	} {
		c := c
		cmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var st protocol.StopwatchStatus
				if err := opts.client().Do(cmd.Context(), c.method, c.path, nil, &st); err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts, st, func(w io.Writer) { printStopwatch(w, st) })
			},
		})
	}
	return cmd
}

func printStopwatch(w io.Writer, st protocol.StopwatchStatus) {
	state := "stopped"
	if st.Running {
		state = "running"
	}
	fmt.Fprintf(w, "%-9s %s\n", state, formatMillis(st.ElapsedMs))

	for i, l := range st.Laps {
		mark := ""
		if st.Stats != nil {
			switch i {
			case st.Stats.FastestIndex:
				mark = "  fastest"
			case st.Stats.SlowestIndex:
				mark = "  slowest"
			}
		}
		fmt.Fprintf(w, "  lap %-3d %s  %s%s\n", l.Number, formatMillis(l.SplitMs), formatMillis(l.TotalMs), mark)
	}
	if st.Stats != nil {
		fmt.Fprintf(w, "  average %s\n", formatMillis(st.Stats.AverageMs))
	}
}

// formatMillis renders milliseconds as MM:SS.cc, with an hour field from an
// hour up.
func formatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	cs := ms / 10 % 100
	s := ms / 1000
	h, m, sec := s/3600, s%3600/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, sec, cs)
	}
	return fmt.Sprintf("%02d:%02d.%02d", m, sec, cs)
}
