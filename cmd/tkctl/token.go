package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aelexs/timekeeper/internal/auth"
	"github.com/aelexs/timekeeper/internal/domain"
)

func newTokenCmd() *cobra.Command {
	var (
		keyFile, keyID   string
		issuer, audience string
		subject          string
		ttl              time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a control API token from a private key",
		Long: `Mint an RS256 access token signed with the daemon's private key. The
issuer, audience and key ID must match the daemon's auth settings.`,
		Example: "  export TKCTL_TOKEN=$(tkctl token --key-file timekeeper.pem)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keyFile == "" {
				return fmt.Errorf("--key-file is required")
			}
			ks, err := auth.LoadKeyStoreFile(keyFile, keyID)
			if err != nil {
				return err
			}
			minter := auth.NewMinter(auth.MinterConfig{
				KeyStore:  ks,
				AccessTTL: ttl,
				Issuer:    issuer,
				Audience:  audience,
				Clock:     domain.RealClock{},
			})
			res, err := minter.MintAccessToken(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&keyFile, "key-file", "", "PEM RSA private key")
	f.StringVar(&keyID, "key-id", "timekeeper-1", "key ID placed in the token header")
	f.StringVar(&issuer, "issuer", "timekeeper", "token issuer")
	f.StringVar(&audience, "audience", "timekeeper-api", "token audience")
	f.StringVar(&subject, "subject", "tkctl", "token subject")
	f.DurationVar(&ttl, "ttl", domain.AccessTokenLifetime, "token lifetime")
	return cmd
}
