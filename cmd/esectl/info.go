package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joshuapare/esekit/pkg/ese"
	"github.com/joshuapare/esekit/pkg/types"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <store>",
		Short: "Validate an ESE store header and list its tables",
		Long: `The info command opens a Windows.edb store, validates its header and
catalog, and reports basic metadata and the table listing.

Example:
  esectl info Windows.edb
  esectl info Windows.edb --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

func runInfo(args []string) error {
	storePath := args[0]

	printVerbose("Opening store: %s\n", storePath)

	db, err := ese.Open(storePath, types.OpenOptions{AcceptDirty: true})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	info := db.Info()
	sort.Strings(info.Tables)

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nStore Information:\n")
	printInfo("  File: %s\n", storePath)
	if stat, err := os.Stat(storePath); err == nil {
		printInfo("  Size: %d bytes\n", stat.Size())
	}
	printInfo("  Page size: %d\n", info.PageSize)
	printInfo("  Format revision: 0x%x\n", info.Revision)
	printInfo("  Pages: %d\n", info.PageCount)
	printInfo("  Clean shutdown: %t\n", info.Clean)
	printInfo("  Tables (%d):\n", len(info.Tables))
	for _, name := range info.Tables {
		printInfo("    %s\n", name)
	}
	return nil
}
