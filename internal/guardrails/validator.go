// Package guardrails screens user input before it reaches a provider,
// validates generated output, and assembles the system prompt from the
// user profile.
package guardrails

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/chefstream/chefstream/internal/providers"
)

const maxInputLength = 500

// ReasonForbiddenPattern is the rejection reason for any rule match; the
// specific family is logged but not surfaced, so callers cannot probe the
// rule set.
const ReasonForbiddenPattern = "forbidden_pattern"

// InputResult is the outcome of input validation. Sanitized is only set
// when Valid.
type InputResult struct {
	Valid     bool
	Reason    string
	Sanitized string
}

// OutputResult is the outcome of output validation.
type OutputResult struct {
	Valid  bool
	Reason string
}

type Validator struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateInput screens one user request. It rejects empty or over-length
// input, scans the ordered rule list, and sanitizes accepted text.
// Rejection always happens before any network call.
func (v *Validator) ValidateInput(input string) InputResult {
	trimmed := strings.TrimSpace(input)

	if trimmed == "" {
		return InputResult{Valid: false, Reason: "empty_input"}
	}

	if len([]rune(trimmed)) > maxInputLength {
		return InputResult{Valid: false, Reason: "input_too_long"}
	}

	for _, r := range inputRules {
		if r.Pattern.MatchString(trimmed) {
			v.logger.Warn("Input blocked by guardrail",
				"family", r.Family,
				"length", len(trimmed),
			)

			return InputResult{Valid: false, Reason: ReasonForbiddenPattern}
		}
	}

	return InputResult{Valid: true, Sanitized: Sanitize(trimmed)}
}

// Sanitize strips HTML tags and control characters and collapses runs of
// whitespace.
func Sanitize(input string) string {
	out := htmlTags.ReplaceAllString(input, "")
	out = controlChars.ReplaceAllString(out, "")
	out = whitespace.ReplaceAllString(out, " ")

	return strings.TrimSpace(out)
}

// ValidateOutput checks generated text before it is surfaced. Code
// markers block; anything else passes. Text with no culinary vocabulary
// is logged as a warning only.
func (v *Validator) ValidateOutput(output string) OutputResult {
	if outputCodeMarkers.MatchString(output) {
		v.logger.Warn("Generated output contained code markers", "length", len(output))

		return OutputResult{Valid: false, Reason: "code_in_output"}
	}

	if !culinaryHints.MatchString(output) {
		v.logger.Warn("Generated output has no culinary vocabulary", "length", len(output))
	}

	return OutputResult{Valid: true}
}

// CountTokens measures prompt size with the cl100k_base encoding. When
// the encoding cannot be loaded it falls back to the usual four-bytes-
// per-token estimate rather than reporting zero.
func (v *Validator) CountTokens(text string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		v.logger.Error("Failed to load tiktoken encoding", "error", err)
		return len(text) / 4
	}

	return len(enc.Encode(text, nil, nil))
}

// CheckContextFit verifies the assembled prompts fit the model's context
// window before any network call. The window figure comes from the static
// catalog, leaving headroom for the completion.
func (v *Validator) CheckContextFit(provider, model, systemPrompt, userPrompt string) (tokens int, fits bool) {
	tokens = v.CountTokens(systemPrompt + "\n" + userPrompt)
	window := providers.ContextWindowFor(provider, model)

	// reserve a quarter of the window for output
	return tokens, tokens <= window*3/4
}
