package main

import (
	"os"

	"github.com/IvanShishkin/shadowsnap/internal/report"
	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/spf13/cobra"
)

// treeCmd creates the tree command
func treeCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "tree <snapshot>",
		Short: "Print the folder hierarchy of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := snapshot.Load(args[0])
			if err != nil {
				return err
			}
			return report.PrintTree(os.Stdout, entries, root)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root folder of the tree (default: deepest folder shared by all entries)")

	return cmd
}
