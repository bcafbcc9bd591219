package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chefstream/chefstream/internal/providers"
)

var keycheckCmd = &cobra.Command{
	Use:   "keycheck <provider> [key]",
	Short: "Validate an API key",
	Long:  `Issue a minimal probe call against a provider to check whether a key is accepted. Without an explicit key the configured one is used.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runKeycheck,
}

func runKeycheck(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	cfg := cfgMgr.Get()
	registry := providers.NewRegistry(providers.Options{RelayURL: cfg.Relay()})

	providerID := args[0]

	adapter, ok := registry.Get(providerID)
	if !ok {
		return fmt.Errorf("unknown provider %q", providerID)
	}

	key := cfg.KeyFor(providerID)
	if len(args) == 2 {
		key = args[1]
	}

	if key == "" {
		return fmt.Errorf("no key given and none configured for %s", providerID)
	}

	check := adapter.ValidateKey(cmd.Context(), key)

	switch {
	case check.Valid:
		color.Green("Key accepted by %s", providerID)
	case check.Err != nil:
		color.Yellow("Could not verify key against %s: %v", providerID, check.Err)
		return check.Err
	default:
		color.Red("Key rejected by %s", providerID)
	}

	return nil
}
