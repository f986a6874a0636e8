package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			if err := a.close(); err != nil {
				return sysError("%v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "khatt initialized\nconfig: %s\ndata:   %s\n", a.settings.ConfigDir, a.settings.Store.DataDir)
			return nil
		},
	}
}
