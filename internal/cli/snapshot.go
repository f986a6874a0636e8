package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/khatt/pkg/types"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table to JSONL files in dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			counts, err := a.backend.Export(args[0])
			if err != nil {
				return sysError("export: %v", err)
			}
			a.logger.Info("exported snapshot", "dir", args[0])
			return printCounts(cmd.OutOrStdout(), "exported", counts, flags.jsonMode)
		},
	}
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Load JSONL files from dir into an empty store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			counts, err := a.backend.Import(args[0])
			if err != nil {
				if errors.Is(err, types.ErrStoreNotEmpty) || errors.Is(err, types.ErrInvalidData) || errors.Is(err, types.ErrNotFound) {
					return userError("import: %v", err)
				}
				return sysError("import: %v", err)
			}
			a.logger.Info("imported snapshot", "dir", args[0])
			return printCounts(cmd.OutOrStdout(), "imported", counts, flags.jsonMode)
		},
	}
}

func printCounts(w io.Writer, verb string, counts map[string]int, jsonMode bool) error {
	if jsonMode {
		return writeJSON(w, counts)
	}
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(w, "%s %d %s\n", verb, counts[t], t)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysError("encode JSON: %v", err)
	}
	return nil
}
