package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aelexs/timekeeper/pkg/protocol"
)

func newZonesCmd(opts *options) *cobra.Command {
	var hour12 bool

	cmd := &cobra.Command{
		Use:     "zones",
		Aliases: []string{"world", "worldclock"},
		Short:   "Show and manage the world clock",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return zonesCall(cmd, opts, hour12, http.MethodGet, "/v1/zones", nil)
		},
	}
	cmd.PersistentFlags().BoolVar(&hour12, "12h", false, "show times in 12-hour format")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "add ZONE",
			Short:   "Add an IANA time zone",
			Example: "  tkctl zones add Europe/Paris",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return zonesCall(cmd, opts, hour12, http.MethodPost, "/v1/zones", protocol.ZoneRequest{Zone: args[0]})
			},
		},
		&cobra.Command{
			Use:     "remove ZONE",
			Aliases: []string{"rm"},
			Short:   "Remove a time zone",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := "/v1/zones?zone=" + url.QueryEscape(args[0])
				return zonesCall(cmd, opts, hour12, http.MethodDelete, path, nil)
			},
		},
		&cobra.Command{
			Use:   "move FROM TO",
			Short: "Move the zone at position FROM to position TO (1-based)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := parsePosition(args[0])
				if err != nil {
					return err
				}
				to, err := parsePosition(args[1])
				if err != nil {
					return err
				}
				req := protocol.MoveZoneRequest{From: from, To: to}
				return zonesCall(cmd, opts, hour12, http.MethodPost, "/v1/zones/move", req)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default zones",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return zonesCall(cmd, opts, hour12, http.MethodPost, "/v1/zones/reset", nil)
			},
		},
		&cobra.Command{
			Use:   "available",
			Short: "List suggested time zones",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var zones []protocol.ZoneInfo
				if err := opts.client().Do(cmd.Context(), http.MethodGet, "/v1/zones/available", nil, &zones); err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts, zones, func(w io.Writer) {
					for _, z := range zones {
						fmt.Fprintf(w, "%-22s %-14s %s\n", z.Zone, z.City, z.Country)
					}
				})
			},
		},
	)
	return cmd
}

func zonesCall(cmd *cobra.Command, opts *options, hour12 bool, method, path string, body any) error {
	var list protocol.ZoneList
	if err := opts.client().Do(cmd.Context(), method, path, body, &list); err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), opts, list, func(w io.Writer) {
		printZone(w, 0, list.Local, hour12)
		for i, z := range list.Zones {
			printZone(w, i+1, z, hour12)
		}
	})
}

// parsePosition converts a 1-based list position to an index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return n - 1, nil
}

func printZone(w io.Writer, pos int, z protocol.Zone, hour12 bool) {
	t := z.Time
	if hour12 {
		t = z.Time12h
	}
	marker := "night"
	if z.IsDay {
		marker = "day"
	}
	label := "*"
	if pos > 0 {
		label = strconv.Itoa(pos)
	}
	fmt.Fprintf(w, "%2s  %-16s %-11s %-11s %-5s %-9s %s\n", label, z.City, t, z.Date, marker, z.UTCOffset, z.Diff)
}
