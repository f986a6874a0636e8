package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release of the khatt binary.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/khatt"

// revision is set at build time with -ldflags.
var revision = ""

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the khatt version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "khatt v%s\nmodule: %s\n", Version, modulePath)
			if revision != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "revision: %s\n", revision)
			}
			return nil
		},
	}
}
