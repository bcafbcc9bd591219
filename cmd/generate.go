package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chefstream/chefstream/internal/config"
	"github.com/chefstream/chefstream/internal/guardrails"
	"github.com/chefstream/chefstream/internal/providers"
	"github.com/chefstream/chefstream/internal/recipe"
	"github.com/chefstream/chefstream/internal/taxonomy"
)

var generateCmd = &cobra.Command{
	Use:   "generate [ingredients or request...]",
	Short: "Generate a recipe from a prompt",
	Long:  `Run the full pipeline: guardrails validation, prompt assembly, streamed generation, and structured recipe parsing.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringP("provider", "p", "", "provider id (default from config)")
	generateCmd.Flags().StringP("model", "m", "", "model id (default per provider)")
	generateCmd.Flags().String("language", "", "response language (default from config)")
	generateCmd.Flags().Int("max-tokens", 0, "max output tokens")
	generateCmd.Flags().Float64("temperature", 0.7, "sampling temperature")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	cfg := cfgMgr.Get()

	providerID, _ := cmd.Flags().GetString("provider")
	if providerID == "" {
		providerID = cfg.DefaultProvider
	}

	if providerID == "" {
		return errors.New("no provider selected; pass --provider or set default_provider in the config")
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = cfg.Providers[providerID].Model
	}

	if model == "" {
		model = cfg.DefaultModel
	}

	language, _ := cmd.Flags().GetString("language")
	if language == "" {
		language = cfg.Language
	}

	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	temperature, _ := cmd.Flags().GetFloat64("temperature")

	validator := guardrails.New(logger)

	input := strings.TrimSpace(strings.Join(args, " "))

	result := validator.ValidateInput(input)
	if !result.Valid {
		kind := taxonomy.KindUnknown
		if result.Reason == guardrails.ReasonForbiddenPattern {
			kind = taxonomy.KindPromptInjection
		}

		return presentError(taxonomy.New(kind, providerID, result.Reason))
	}

	systemPrompt := guardrails.BuildSystemPrompt(profileFromConfig(cfg.Profile), language)

	tokens, fits := validator.CheckContextFit(providerID, model, systemPrompt, result.Sanitized)
	if !fits {
		return presentError(taxonomy.New(taxonomy.KindContextLengthExceeded, providerID,
			fmt.Sprintf("prompt is %d tokens", tokens)))
	}

	logger.Debug("Prompt assembled", "tokens", tokens, "provider", providerID, "model", model)

	apiKey := cfg.KeyFor(providerID)
	if apiKey == "" && providerID != "gemini" {
		return presentError(taxonomy.New(taxonomy.KindInvalidAPIKey, providerID, "no API key configured"))
	}

	registry := providers.NewRegistry(providers.Options{RelayURL: cfg.Relay()})

	adapter, ok := registry.Get(providerID)
	if !ok {
		return fmt.Errorf("unknown provider %q (known: %s)", providerID, strings.Join(registry.List(), ", "))
	}

	req := providers.GenerateRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   result.Sanitized,
		Model:        model,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	}

	text, err := streamToStdout(cmd.Context(), adapter, req, apiKey)
	if err != nil {
		return presentError(mapFailure(err, providerID))
	}

	output := validator.ValidateOutput(text)
	if !output.Valid {
		return presentError(taxonomy.New(taxonomy.KindContentPolicyViolation, providerID, output.Reason))
	}

	printRecipeSummary(recipe.Parse(text))

	return nil
}

func streamToStdout(ctx context.Context, adapter providers.Adapter, req providers.GenerateRequest, apiKey string) (string, error) {
	s, err := adapter.Generate(ctx, req, apiKey)
	if err != nil {
		return "", err
	}
	defer s.Close()

	var sb strings.Builder

	for {
		chunk, err := s.Next()
		if err != nil {
			return "", err
		}

		if chunk.Done {
			fmt.Println()
			return sb.String(), nil
		}

		fmt.Print(chunk.Content)
		sb.WriteString(chunk.Content)
	}
}

// mapFailure turns a raw adapter failure into a canonical error.
func mapFailure(err error, providerID string) *taxonomy.CanonicalError {
	var upstream *providers.UpstreamError
	if errors.As(err, &upstream) {
		return taxonomy.Map(upstream.Status, upstream.Body, providerID)
	}

	return taxonomy.MapTransport(err, providerID)
}

func presentError(cerr *taxonomy.CanonicalError) error {
	fmt.Fprintln(os.Stderr)
	color.Red("%s %s", cerr.Icon, cerr.Title)
	fmt.Fprintln(os.Stderr, cerr.Message)

	for _, remediation := range cerr.Remediations {
		fmt.Fprintf(os.Stderr, "  - %s\n", remediation)
	}

	if len(cerr.Alternatives) > 0 {
		names := make([]string, 0, len(cerr.Alternatives))
		for _, alt := range cerr.Alternatives {
			names = append(names, alt.Name)
		}

		color.Cyan("Free alternatives: %s", strings.Join(names, ", "))
	}

	if cerr.AutoRetry {
		color.Yellow("Retryable in %dms", cerr.RetryDelayMs)
	}

	return cerr
}

func profileFromConfig(p config.Profile) guardrails.Profile {
	return guardrails.Profile{
		Allergies:  p.Allergies,
		Conditions: p.Conditions,
		Diet:       p.Diet,
		Dislikes:   p.Dislikes,
		SkillLevel: p.SkillLevel,
		Location:   p.Location,
	}
}

func printRecipeSummary(r recipe.Recipe) {
	fmt.Println()
	color.Green("Parsed recipe: %s", r.Title)
	fmt.Printf("  %-12s: %d min prep, %d min cook\n", "Timing", r.PrepTimeMinutes, r.CookTimeMinutes)
	fmt.Printf("  %-12s: %d\n", "Servings", r.Servings)
	fmt.Printf("  %-12s: %d\n", "Ingredients", len(r.Ingredients))
	fmt.Printf("  %-12s: %d steps\n", "Instructions", len(r.Instructions))

	for _, ing := range r.Ingredients {
		if ing.IsAllergen {
			color.Yellow("  Allergen: %s", ing.Name)
		}
	}

	if r.Nutrients != nil {
		fmt.Printf("  %-12s: %s, %s protein\n", "Nutrition", r.Nutrients.Calories, r.Nutrients.Protein)
	}
}
