package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"conceptmap/domain/core/entities"
	"conceptmap/domain/versioning"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the nodes and edges of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rules()
			if err != nil {
				return err
			}
			doc, m, err := loadMap(args[0], cfg)
			if err != nil {
				return err
			}

			sum, err := versioning.Checksum(m.Snapshot())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := doc.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(out, "%s %s  %s\n", brand.Sprint(doc.ID), title, subtle.Sprintf("v%d", doc.Version))
			fmt.Fprintf(out, "  checksum %s\n\n", subtle.Sprint(sum))

			nodeRows := make([][]string, 0, m.NodeCount())
			for _, n := range m.Nodes() {
				summary := entities.Match(n.Payload(),
					func(c entities.ContentPayload) string { return c.Title },
					func(a entities.AnnotationPayload) string { return strings.TrimSpace(a.Level + " " + a.Label) },
				)
				nodeRows = append(nodeRows, []string{
					n.ID().String(),
					string(n.Variant()),
					fmt.Sprintf("%.0f,%.0f", n.Position().X(), n.Position().Y()),
					summary,
				})
			}
			fmt.Fprintf(out, "%s (%d)\n", brand.Sprint("Nodes"), m.NodeCount())
			table(out, []string{"ID", "TYPE", "POSITION", "TEXT"}, nodeRows)

			edgeRows := make([][]string, 0, m.EdgeCount())
			for _, e := range m.Edges() {
				edgeRows = append(edgeRows, []string{
					e.ID().String(),
					e.SourceID().String(),
					e.TargetID().String(),
					e.Label(),
				})
			}
			fmt.Fprintf(out, "\n%s (%d)\n", brand.Sprint("Edges"), m.EdgeCount())
			table(out, []string{"ID", "SOURCE", "TARGET", "LABEL"}, edgeRows)
			return nil
		},
	}
}
