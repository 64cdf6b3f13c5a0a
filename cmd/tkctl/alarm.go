package main

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aelexs/timekeeper/pkg/protocol"
)

func newAlarmCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alarm",
		Aliases: []string{"alarms"},
		Short:   "Manage alarms",
	}
	cmd.AddCommand(
		newAlarmListCmd(opts),
		newAlarmAddCmd(opts),
		newAlarmUpdateCmd(opts),
		alarmIDCmd(opts, "toggle ID", "Enable or disable an alarm", http.MethodPost, "toggle"),
		newAlarmDeleteCmd(opts),
		&cobra.Command{
			Use:   "dismiss",
			Short: "Silence the ringing alarm",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return alarmCall(cmd, opts, http.MethodPost, "/v1/alarms/dismiss", nil)
			},
		},
		&cobra.Command{
			Use:   "snooze [MINUTES]",
			Short: "Snooze the ringing alarm (default: server setting)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var req protocol.SnoozeRequest
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("invalid snooze minutes %q", args[0])
					}
					req.Minutes = n
				}
				return alarmCall(cmd, opts, http.MethodPost, "/v1/alarms/snooze", req)
			},
		},
	)
	return cmd
}

func newAlarmListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List alarms",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list protocol.AlarmList
			if err := opts.client().Do(cmd.Context(), http.MethodGet, "/v1/alarms", nil, &list); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts, list, func(w io.Writer) {
				if len(list.Alarms) == 0 {
					fmt.Fprintln(w, "no alarms")
					return
				}
				for _, a := range list.Alarms {
					printAlarm(w, a)
				}
			})
		},
	}
}

func newAlarmAddCmd(opts *options) *cobra.Command {
	var (
		req    protocol.AddAlarmRequest
		repeat string
		vib    bool
	)
	cmd := &cobra.Command{
		Use:     "add HH:MM",
		Short:   "Add an alarm",
		Example: "  tkctl alarm add 06:30 --label Gym --repeat weekdays",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Time = args[0]
			days, err := parseDays(repeat)
			if err != nil {
				return err
			}
			req.RepeatDays = days
			if cmd.Flags().Changed("vibration") {
				req.Vibration = &vib
			}

			var a protocol.Alarm
			if err := opts.client().Do(cmd.Context(), http.MethodPost, "/v1/alarms", req, &a); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts, a, func(w io.Writer) { printAlarm(w, a) })
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Label, "label", "", "alarm label")
	f.StringVar(&repeat, "repeat", "", "repeat days: daily, weekdays, weekends, or a list like mon,wed,fri")
	f.StringVar(&req.SoundID, "sound", "", "sound identifier")
	f.IntVar(&req.Volume, "volume", 0, "volume 0-100")
	f.BoolVar(&vib, "vibration", true, "vibrate when ringing")
	return cmd
}

func newAlarmUpdateCmd(opts *options) *cobra.Command {
	var (
		at, label, repeat, sound string
		enabled, vib             bool
		volume                   int
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change an alarm; only the given flags are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var req protocol.UpdateAlarmRequest
			if f.Changed("time") {
				req.Time = &at
			}
			if f.Changed("label") {
				req.Label = &label
			}
			if f.Changed("enabled") {
				req.Enabled = &enabled
			}
			if f.Changed("repeat") {
				days, err := parseDays(repeat)
				if err != nil {
					return err
				}
				if days == nil {
					days = []int{}
				}
				req.RepeatDays = &days
			}
			if f.Changed("sound") {
				req.SoundID = &sound
			}
			if f.Changed("volume") {
				req.Volume = &volume
			}
			if f.Changed("vibration") {
				req.Vibration = &vib
			}
			return alarmCall(cmd, opts, http.MethodPatch, alarmPath(args[0]), req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&at, "time", "", "new time, HH:MM")
	f.StringVar(&label, "label", "", "new label")
	f.BoolVar(&enabled, "enabled", true, "enable or disable")
	f.StringVar(&repeat, "repeat", "", "repeat days; none makes it one-shot")
	f.StringVar(&sound, "sound", "", "sound identifier")
	f.IntVar(&volume, "volume", 0, "volume 0-100")
	f.BoolVar(&vib, "vibration", true, "vibrate when ringing")
	return cmd
}

func newAlarmDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete an alarm",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Do(cmd.Context(), http.MethodDelete, alarmPath(args[0]), nil, nil); err != nil {
				return err
			}
			if opts.output == "text" {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			}
			return nil
		},
	}
}

func alarmIDCmd(opts *options, use, short, method, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return alarmCall(cmd, opts, method, alarmPath(args[0], action), nil)
		},
	}
}

func alarmCall(cmd *cobra.Command, opts *options, method, path string, body any) error {
	var a protocol.Alarm
	if err := opts.client().Do(cmd.Context(), method, path, body, &a); err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), opts, a, func(w io.Writer) { printAlarm(w, a) })
}

var dayNames = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func printAlarm(w io.Writer, a protocol.Alarm) {
	state := "off"
	switch {
	case a.Ringing:
		state = "RINGING"
	case a.Enabled:
		state = "on"
	}
	days := "once"
	if len(a.RepeatDays) > 0 {
		names := make([]string, 0, len(a.RepeatDays))
		for _, d := range a.RepeatDays {
			if d >= 0 && d < len(dayNames) {
				names = append(names, dayNames[d])
			}
		}
		days = strings.Join(names, ",")
	}
	fmt.Fprintf(w, "%s  %s  %-7s %-20s %-16s in %s\n", a.ID, a.Time, state, a.Label, days, a.TimeUntil)
}

// parseDays converts a --repeat value to wire day numbers, Sunday being 0.
// An empty or "none" value means a one-shot alarm.
func parseDays(value string) ([]int, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "", "none", "once":
		return nil, nil
	case "daily":
		return []int{0, 1, 2, 3, 4, 5, 6}, nil
	case "weekdays":
		return []int{1, 2, 3, 4, 5}, nil
	case "weekends":
		return []int{0, 6}, nil
	}

	seen := make(map[int]bool)
	var days []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		d := -1
		for i, name := range dayNames {
			if strings.HasPrefix(part, name) {
				d = i
				break
			}
		}
		if d < 0 {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 || n > 6 {
				return nil, fmt.Errorf("invalid repeat day %q", part)
			}
			d = n
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}
