package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"testseries-service/internal/domain"
)

// NewTokenCmd mints a development token signed with auth.jwt_secret.
func NewTokenCmd(configPath *string) *cobra.Command {
	var id domain.Identity
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed JWT for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			v, err := newJWTVerifier(cfg)
			if err != nil {
				return err
			}
			token, err := v.Issue(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.UID, "uid", "", "user id (token subject)")
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&id.Name, "name", "", "display name claim")
	cmd.Flags().StringVar(&id.Role, "role", "", "role claim, e.g. admin")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}
