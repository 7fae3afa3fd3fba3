package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"epias-report/internal/auth"
	"epias-report/internal/config"
)

type tokenCmd struct {
	cfg     config.Config
	subject string
	role    string
	ttl     time.Duration
}

// NewTokenCmd builds a command that signs an API token with AUTH_JWT_SECRET.
func NewTokenCmd(cfg config.Config) *cobra.Command {
	tc := &tokenCmd{cfg: cfg}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the report API",
		RunE:  tc.run,
	}
	cmd.Flags().StringVar(&tc.subject, "subject", "operator", "Token subject")
	cmd.Flags().StringVar(&tc.role, "role", string(auth.RoleOperator), "Role: viewer, operator or admin")
	cmd.Flags().DurationVar(&tc.ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func (tc *tokenCmd) run(cmd *cobra.Command, _ []string) error {
	role, ok := auth.ParseRole(tc.role)
	if !ok {
		return fmt.Errorf("unknown role %q", tc.role)
	}
	token, err := auth.IssueJWT([]byte(tc.cfg.JWTSecret), tc.subject, role, tc.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
