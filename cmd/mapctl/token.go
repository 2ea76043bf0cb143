package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"conceptmap/pkg/auth"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		issuer string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development JWT signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			gen, err := auth.NewJWTGenerator(secret, issuer, nil, ttl)
			if err != nil {
				return err
			}
			token, err := gen.GenerateToken(userID, email, []string{"authenticated"})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "local-user", "subject of the token")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&issuer, "issuer", "conceptmap", "issuer claim, must match JWT_ISSUER")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
