package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"conceptmap/application/editor"
	"conceptmap/application/ports"
	"conceptmap/application/services"
	domainconfig "conceptmap/domain/config"
	"conceptmap/domain/core/valueobjects"
)

func linkCmd() *cobra.Command {
	var (
		nodeID    string
		x, y      float64
		threshold float64
		output    string
	)

	cmd := &cobra.Command{
		Use:   "link <file>",
		Short: "Drop a node at a position and auto-link it as the editor would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rules()
			if err != nil {
				return err
			}
			if threshold > 0 {
				cfg.LinkThreshold = threshold
			}

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			updated, result, err := dropNode(doc, cfg, nodeID, x, y)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case result.Linked:
				c := result.Candidate
				fmt.Fprintf(out, "  %s linked %s → %s %s\n", statusIcon(true),
					c.Source, c.Target, subtle.Sprintf("(distance %.1f)", c.Distance))
			case result.Candidate != nil:
				warn.Fprintf(out, "  candidate %s dropped: edge limit reached\n", result.Candidate.ID)
			default:
				fmt.Fprintf(out, "  %s no node within %.0f\n", subtle.Sprint("–"), cfg.LinkThreshold)
			}

			if output != "" {
				return writeDocument(output, updated)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeID, "node", "", "id of the node to move")
	cmd.Flags().Float64Var(&x, "x", 0, "drop x coordinate")
	cmd.Flags().Float64Var(&y, "y", 0, "drop y coordinate")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "override the link threshold")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the updated document here (- for stdout)")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}

// dropNode replays a complete drag of one node and returns the resulting
// document with its version bumped when anything changed
func dropNode(doc *ports.MapDocument, cfg *domainconfig.DomainConfig, nodeID string, x, y float64) (*ports.MapDocument, editor.DragResult, error) {
	m, err := services.BuildConceptMap(doc, cfg)
	if err != nil {
		return nil, editor.DragResult{}, err
	}
	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return nil, editor.DragResult{}, err
	}
	position, err := valueobjects.NewPosition(x, y)
	if err != nil {
		return nil, editor.DragResult{}, err
	}

	drag := editor.NewDragController(m, cfg.LinkThreshold)
	if err := drag.Start(id); err != nil {
		return nil, editor.DragResult{}, err
	}
	result, err := drag.Stop(position)
	if err != nil {
		return nil, editor.DragResult{}, err
	}

	meta := services.MapMeta{
		OwnerID:  doc.OwnerID,
		LessonID: doc.LessonID,
		Title:    doc.Title,
		Version:  doc.Version,
	}
	if len(m.GetUncommittedEvents()) > 0 {
		meta.Version++
	}
	return services.DocumentOf(m, meta), result, nil
}
