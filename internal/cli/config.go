package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AI2HU/taskcollab-setup/internal/provision"
)

func newConfigCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  `Print the resolved connection settings as YAML. The password is masked.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := s.cfg.YAML()
			if err != nil {
				return provision.NewError(provision.KindUnexpected, "render configuration", err)
			}
			fmt.Fprintln(s.out, FormatInfo("# effective configuration"))
			fmt.Fprint(s.out, string(data))
			return nil
		},
	}
}
