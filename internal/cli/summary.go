package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/khatt/internal/wire"
	"github.com/mesh-intelligence/khatt/pkg/types"
)

func newSummaryCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <manuscript-id>",
		Short: "Show a manuscript with its chapters, asides, and lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return userError("manuscript id must be a positive integer: %q", args[0])
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			m, err := a.boundary.Manuscript(id)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return userError("manuscript %d not found", id)
				}
				return sysError("summary: %v", err)
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), m)
			}
			printSummary(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func printSummary(w io.Writer, m *wire.Manuscript) {
	fmt.Fprintf(w, "%s (manuscript %d of book %d)\n", m.Title, m.ID, m.Book)
	if m.Editor != "" {
		fmt.Fprintf(w, "editor: %s\n", m.Editor)
	}
	fmt.Fprintf(w, "page count: %d, text %s, pages %s\n", m.PageCount, m.TextDirection, m.PageDirection)
	printEntries(w, "chapters", m.Chapters)
	printEntries(w, "asides", m.Asides)
	printEntries(w, "lines", m.AnnotatedLines)
}

func printEntries(w io.Writer, label string, entries []wire.Entry) {
	done := 0
	for _, e := range entries {
		if e.Complete {
			done++
		}
	}
	fmt.Fprintf(w, "%s: %d (%d complete)\n", label, len(entries), done)
}
