package main

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aelexs/timekeeper/pkg/protocol"
)

func newTimerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Control the countdown timer",
	}

	simple := func(use, short, method, path string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return timerCall(cmd, opts, method, path, nil)
			},
		}
	}

	cmd.AddCommand(
		simple("status", "Show the countdown", http.MethodGet, "/v1/timer"),
		simple("start", "Start or resume the countdown", http.MethodPost, "/v1/timer/start"),
		simple("pause", "Pause the countdown", http.MethodPost, "/v1/timer/pause"),
		simple("reset", "Return to the configured duration", http.MethodPost, "/v1/timer/reset"),
		simple("clear", "Restore the default duration and session count", http.MethodDelete, "/v1/timer"),
		&cobra.Command{
			Use:     "configure DURATION",
			Short:   "Set the countdown duration (e.g. 90, 25m, 1h30m)",
			Example: "  tkctl timer configure 25m",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				secs, err := parseSeconds(args[0])
				if err != nil {
					return err
				}
				return timerCall(cmd, opts, http.MethodPost, "/v1/timer/configure", protocol.SecondsRequest{Seconds: secs})
			},
		},
		&cobra.Command{
			Use:     "add DURATION",
			Short:   "Extend the countdown",
			Example: "  tkctl timer add 5m",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				secs, err := parseSeconds(args[0])
				if err != nil {
					return err
				}
				return timerCall(cmd, opts, http.MethodPost, "/v1/timer/add", protocol.SecondsRequest{Seconds: secs})
			},
		},
		newTimerWaitCmd(opts),
	)
	return cmd
}

func timerCall(cmd *cobra.Command, opts *options, method, path string, body any) error {
	var st protocol.TimerStatus
	if err := opts.client().Do(cmd.Context(), method, path, body, &st); err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), opts, st, func(w io.Writer) { printTimer(w, st) })
}

func newTimerWaitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "wait",
		Short: "Block until the running countdown completes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			completed := false
			err := opts.client().Events(cmd.Context(), func(f *protocol.Frame) error {
				if f.Type != protocol.FrameTypeTimerCompleted {
					return nil
				}
				var done protocol.TimerCompleted
				if err := f.ParsePayload(&done); err != nil {
					return err
				}
				if err := printResult(w, opts, done, func(w io.Writer) {
					fmt.Fprintf(w, "timer completed (session %d)\n", done.Session)
				}); err != nil {
					return err
				}
				completed = true
				return errStopStream
			})
			switch {
			case err != nil:
				return err
			case completed:
				return nil
			case cmd.Context().Err() != nil:
				return cmd.Context().Err()
			}
			return fmt.Errorf("event stream closed before the timer completed")
		},
	}
}

func printTimer(w io.Writer, st protocol.TimerStatus) {
	fmt.Fprintf(w, "%-9s %s of %s  sessions: %d\n",
		st.State, formatClock(st.RemainingSeconds), formatClock(st.TotalSeconds), st.SessionCount)
}

// parseSeconds accepts a bare number of seconds or a Go duration string.
func parseSeconds(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds or a value like 25m", s)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("invalid duration %q: whole seconds only", s)
	}
	return int64(d / time.Second), nil
}

// formatClock renders seconds as M:SS, or H:MM:SS from an hour up.
func formatClock(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
