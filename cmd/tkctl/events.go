package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aelexs/timekeeper/pkg/protocol"
)

func newEventsCmd(opts *options) *cobra.Command {
	var (
		heartbeats bool
		count      int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream daemon events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			seen := 0
			err := opts.client().Events(cmd.Context(), func(f *protocol.Frame) error {
				if f.Type == protocol.FrameTypeHeartbeat && !heartbeats {
					return nil
				}
				if opts.output == "json" {
					data, err := json.Marshal(f)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\n", data)
				} else {
					fmt.Fprintf(w, "%-16s %s\n", f.Type, f.Payload)
				}
				seen++
				if count > 0 && seen >= count {
					return errStopStream
				}
				return nil
			})
			return err
		},
	}
	cmd.Flags().BoolVar(&heartbeats, "heartbeats", false, "include heartbeat frames")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many frames (0 streams forever)")
	return cmd
}
