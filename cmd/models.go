package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chefstream/chefstream/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List available models",
	Long:  `List models per provider, querying the vendor live when a key is configured and falling back to the built-in catalog.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	cfg := cfgMgr.Get()
	registry := providers.NewRegistry(providers.Options{RelayURL: cfg.Relay()})

	ids := registry.List()
	if len(args) == 1 {
		if _, ok := registry.Get(args[0]); !ok {
			return fmt.Errorf("unknown provider %q", args[0])
		}

		ids = args[:1]
	}

	for _, id := range ids {
		adapter, _ := registry.Get(id)
		desc := adapter.Descriptor()

		header := desc.Name
		if desc.IsFree {
			header += " (free tier)"
		}

		color.Blue("%s [%s]", header, id)

		for _, m := range adapter.ListModels(cmd.Context(), cfg.KeyFor(id)) {
			free := ""
			if m.IsFree {
				free = " free"
			}

			fmt.Printf("  %-45s %8d ctx%s\n", m.ID, m.ContextWindow, free)
		}

		fmt.Println()
	}

	return nil
}
