// Command mapctl inspects and edits stored concept-map documents offline.
package main

import (
	"os"

	"github.com/spf13/cobra"

	domainconfig "conceptmap/domain/config"
	infraconfig "conceptmap/infrastructure/config"
)

var (
	envFlag        string
	editorFileFlag string
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mapctl",
		Short:         "Inspect, validate and link concept-map documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFlag, "env", "development", "rule set to apply (development, production, default)")
	root.PersistentFlags().StringVar(&editorFileFlag, "config", "", "editor rules YAML file")

	root.AddCommand(
		validateCmd(),
		inspectCmd(),
		linkCmd(),
		diffCmd(),
		tokenCmd(),
	)
	return root
}

// rules resolves the editor rules from the persistent flags
func rules() (*domainconfig.DomainConfig, error) {
	loader, err := infraconfig.NewEditorConfigLoader(editorFileFlag, envFlag, nil)
	if err != nil {
		return nil, err
	}
	return loader.Config(), nil
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "mapctl: %v\n", err)
		os.Exit(1)
	}
}
