package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the database exists",
		Long:  `Connect to the server and report whether the configured database exists. Nothing is created or dropped.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exists, err := s.newProvisioner().Exists(cmd.Context())
			if err != nil {
				return err
			}

			if exists {
				fmt.Fprintf(s.out, "\n%s\n", FormatSuccess(fmt.Sprintf("✅ Database '%s' exists", s.cfg.Database)))
			} else {
				fmt.Fprintf(s.out, "\n%s\n", FormatWarning(fmt.Sprintf("⚠️  Database '%s' does not exist", s.cfg.Database)))
				fmt.Fprintln(s.out, FormatDim("   Run taskcollab-setup to create it"))
			}
			return nil
		},
	}
}
