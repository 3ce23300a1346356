package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rgeron/next-hackaton/pkg/config"
	"github.com/rgeron/next-hackaton/pkg/identity"
	"github.com/spf13/cobra"
)

var (
	newUser bool

	tokenCmd = &cobra.Command{
		Use:   "token [USER_ID]",
		Short: "Issue a bearer token for a user",
		Long:  "Issue a bearer token for a user. The token is signed with the configured auth secret.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg := config.FromContext(c.Context())

			var id string
			switch {
			case newUser:
				id = uuid.NewString()
			case len(args) == 1:
				id = args[0]
			default:
				return fmt.Errorf("a user id or --new is required")
			}

			tokens, err := identity.NewTokens(cfg.Auth)
			if err != nil {
				return fmt.Errorf("create tokens: %w", err)
			}
			tok, err := tokens.Issue(id)
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			if newUser {
				fmt.Fprintf(out, "user: %s\n", id) //nolint:errcheck
			}
			fmt.Fprintln(out, tok) //nolint:errcheck
			return nil
		},
	}
)

func init() {
	tokenCmd.Flags().BoolVar(&newUser, "new", false, "generate a new user id")
}
