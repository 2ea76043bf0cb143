package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgerrors "conceptmap/pkg/errors"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check that documents satisfy the editor rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rules()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				_, m, err := loadMap(path, cfg)
				if err == nil {
					err = m.Validate()
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "  %s %s  %s\n", statusIcon(false), path, describe(err))
					continue
				}
				fmt.Fprintf(out, "  %s %s  %s\n", statusIcon(true), path,
					subtle.Sprintf("%d nodes, %d edges", m.NodeCount(), m.EdgeCount()))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}
}

// describe prefers the application message over the wrapped chain
func describe(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		if appErr.Code != "" {
			return fmt.Sprintf("%s [%s]", appErr.Message, appErr.Code)
		}
		return appErr.Message
	}
	return err.Error()
}
