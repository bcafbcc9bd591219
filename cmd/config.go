package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chefstream/chefstream/internal/config"
	"github.com/chefstream/chefstream/internal/providers"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the chefstream configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long:  `Initialize configuration by prompting for a provider and key.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration with keys masked.`,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <provider> <api-key>",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	color.Blue("chefstream configuration setup")
	color.Yellow("Follow the prompts to configure your default provider.")

	registry := providers.NewRegistry(providers.Options{})
	fmt.Printf("\nKnown providers: %s\n", strings.Join(registry.List(), ", "))

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("\nDefault provider: ")
	providerID, _ := reader.ReadString('\n')
	providerID = strings.TrimSpace(providerID)

	if _, ok := registry.Get(providerID); !ok {
		return fmt.Errorf("unknown provider %q", providerID)
	}

	fmt.Print("API Key: ")
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)

	fmt.Print("Preferred model (optional): ")
	model, _ := reader.ReadString('\n')
	model = strings.TrimSpace(model)

	fmt.Print("Response language [English]: ")
	language, _ := reader.ReadString('\n')
	language = strings.TrimSpace(language)

	cfg := &config.Config{
		Host:            config.DefaultHost,
		Port:            config.DefaultPort,
		DefaultProvider: providerID,
		Language:        language,
		Providers: map[string]config.Provider{
			providerID: {APIKey: apiKey, Model: model},
		},
	}

	if err := cfgMgr.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	color.Green("Configuration saved to: %s", cfgMgr.GetPath())
	color.Cyan("Generate a recipe with: %s generate \"chicken and rice\"", AppName)

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if !cfgMgr.Exists() {
		color.Yellow("No configuration found. Run '%s config init' to create one.", AppName)
		return nil
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	color.Blue("Current Configuration:")
	fmt.Printf("  %-16s: %s\n", "Host", cfg.Host)
	fmt.Printf("  %-16s: %d\n", "Port", cfg.Port)
	fmt.Printf("  %-16s: %s\n", "Service Key", maskString(cfg.APIKey))
	fmt.Printf("  %-16s: %s\n", "Default Provider", cfg.DefaultProvider)
	fmt.Printf("  %-16s: %s\n", "Language", cfg.Language)
	fmt.Printf("  %-16s: %s\n", "Config Path", cfgMgr.GetPath())

	if len(cfg.Providers) > 0 {
		fmt.Println("\nProviders:")

		for id, provider := range cfg.Providers {
			fmt.Printf("  - %s\n", id)
			fmt.Printf("    API Key: %s\n", maskString(provider.APIKey))

			if provider.Model != "" {
				fmt.Printf("    Model: %s\n", provider.Model)
			}
		}
	}

	if len(cfg.Profile.Allergies) > 0 || cfg.Profile.Diet != "" {
		fmt.Println("\nProfile:")

		if len(cfg.Profile.Allergies) > 0 {
			fmt.Printf("  Allergies: %s\n", strings.Join(cfg.Profile.Allergies, ", "))
		}

		if cfg.Profile.Diet != "" {
			fmt.Printf("  Diet: %s\n", cfg.Profile.Diet)
		}
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	providerID, apiKey := args[0], args[1]

	registry := providers.NewRegistry(providers.Options{})
	if _, ok := registry.Get(providerID); !ok {
		return fmt.Errorf("unknown provider %q (known: %s)", providerID, strings.Join(registry.List(), ", "))
	}

	cfg := cfgMgr.Get()
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.Provider)
	}

	entry := cfg.Providers[providerID]
	entry.APIKey = apiKey
	cfg.Providers[providerID] = entry

	if err := cfgMgr.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	color.Green("Stored key for %s", providerID)

	return nil
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}

	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}

	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
