package guardrails

import "strings"

// Profile is the slice of the user profile that parametrizes prompt
// assembly. Read once per generation call from the profile store.
type Profile struct {
	Allergies  []string
	Conditions []string
	Diet       string
	Dislikes   []string
	SkillLevel string
	Location   string
}

func (p Profile) hasRestrictions() bool {
	return len(p.Allergies) > 0 || len(p.Conditions) > 0 || p.Diet != "" || len(p.Dislikes) > 0
}

// BuildSystemPrompt assembles the system prompt from a profile. Sections
// are emitted in a fixed order and only when they have content, so
// identical profiles always produce byte-identical prompts.
func BuildSystemPrompt(p Profile, language string) string {
	if language == "" {
		language = "English"
	}

	var b strings.Builder

	// 1. identity and language, always present
	b.WriteString("You are a professional chef assistant. You create clear, practical recipes ")
	b.WriteString("from the ingredients the user has on hand. Respond only with a recipe in ")
	b.WriteString("markdown, never with code or anything unrelated to cooking. Respond in ")
	b.WriteString(language)
	b.WriteString(".\n")

	// 2. output template, always present
	b.WriteString("\nFormat the recipe as:\n")
	b.WriteString("## [emoji] Recipe Title\n")
	b.WriteString("**⏱️ Prep**: X min | **🍳 Cook**: X min | **👥 Servings**: X\n")
	b.WriteString("### Ingredients\n- quantity unit ingredient\n")
	b.WriteString("### Instructions\n1. step\n")
	b.WriteString("### Tips\n### Nutrition\n")

	// 3. restrictions, only when the profile has any
	if p.hasRestrictions() {
		b.WriteString("\nStrict dietary restrictions:\n")

		if len(p.Allergies) > 0 {
			b.WriteString("- NEVER use these allergens: ")
			b.WriteString(strings.Join(p.Allergies, ", "))
			b.WriteString(". Mark any ingredient that commonly cross-contaminates with ⚠️.\n")
		}

		if len(p.Conditions) > 0 {
			b.WriteString("- Account for these health conditions: ")
			b.WriteString(strings.Join(p.Conditions, ", "))
			b.WriteString(".\n")
		}

		if p.Diet != "" {
			b.WriteString("- The recipe must be ")
			b.WriteString(p.Diet)
			b.WriteString(".\n")
		}

		if len(p.Dislikes) > 0 {
			b.WriteString("- Avoid these disliked ingredients: ")
			b.WriteString(strings.Join(p.Dislikes, ", "))
			b.WriteString(".\n")
		}
	}

	// 4. skill and locale hints, only when present
	if p.SkillLevel != "" {
		b.WriteString("\nWrite for a ")
		b.WriteString(p.SkillLevel)
		b.WriteString(" home cook.\n")
	}

	if p.Location != "" {
		b.WriteString("\nPrefer ingredients commonly available in ")
		b.WriteString(p.Location)
		b.WriteString(".\n")
	}

	return b.String()
}
