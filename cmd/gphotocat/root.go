package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// errInterrupted is the sentinel scan returns when it was canceled by
// SIGINT, mapped to exit code 130 (SPEC_FULL.md §6 "CLI surface").
var errInterrupted = errors.New("scan interrupted")

func exitCodeFor(err error) int {
	if errors.Is(err, errInterrupted) {
		return 130
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gphotocat",
		Short: "Catalog a Google Photos Takeout export into a SQLite store",
	}
	root.AddCommand(newScanCmd())
	return root
}
