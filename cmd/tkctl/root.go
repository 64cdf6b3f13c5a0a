package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultServer = "http://localhost:8080"
	envServer     = "TKCTL_SERVER"
	envToken      = "TKCTL_TOKEN"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	server  string
	token   string
	timeout time.Duration
	output  string
}

func (o *options) client() *Client {
	return NewClient(o.server, o.token, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tkctl",
		Short: "Control a timekeeper daemon",
		Long: `tkctl drives the countdown timer, stopwatch and alarms of a running
timekeeperd over its HTTP API.

The server address and bearer token default to the TKCTL_SERVER and
TKCTL_TOKEN environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			switch opts.output {
			case "text", "json":
				return nil
			}
			return fmt.Errorf("unknown output format %q (want text or json)", opts.output)
		},
	}

	server := os.Getenv(envServer)
	if server == "" {
		server = defaultServer
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.server, "server", server, "timekeeperd base URL")
	pf.StringVar(&opts.token, "token", os.Getenv(envToken), "bearer token for the control API")
	pf.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout (not applied to event streams)")
	pf.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")

	root.AddCommand(
		newTimerCmd(opts),
		newStopwatchCmd(opts),
		newAlarmCmd(opts),
		newZonesCmd(opts),
		newEventsCmd(opts),
		newTokenCmd(),
	)
	return root
}

// printResult writes v as indented JSON, or through text when the output
// format is text.
func printResult(w io.Writer, opts *options, v any, text func(io.Writer)) error {
	if opts.output == "json" || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
