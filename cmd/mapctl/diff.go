package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"conceptmap/domain/versioning"
)

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show which nodes and edges changed between two documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rules()
			if err != nil {
				return err
			}
			_, from, err := loadMap(args[0], cfg)
			if err != nil {
				return err
			}
			_, to, err := loadMap(args[1], cfg)
			if err != nil {
				return err
			}

			printDiff(cmd.OutOrStdout(), versioning.Compare(from.Snapshot(), to.Snapshot()))
			return nil
		},
	}
}

func printDiff(w io.Writer, d versioning.Diff) {
	if d.IsEmpty() {
		fmt.Fprintln(w, subtle.Sprint("  no changes"))
		return
	}

	section := func(kind string, ids []string, mark string, c *color.Color) {
		for _, id := range ids {
			fmt.Fprintf(w, "  %s %s %s\n", c.Sprint(mark), kind, id)
		}
	}
	section("node", d.NodesAdded, "+", good)
	section("node", d.NodesRemoved, "-", bad)
	section("node", d.NodesUpdated, "~", warn)
	section("edge", d.EdgesAdded, "+", good)
	section("edge", d.EdgesRemoved, "-", bad)
	section("edge", d.EdgesUpdated, "~", warn)
}
