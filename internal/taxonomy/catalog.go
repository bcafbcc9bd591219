package taxonomy

// template holds the static presentation and retry metadata for one kind.
// Enrichment is table-driven: nothing here depends on the specific
// failure instance.
type template struct {
	Icon         string
	Title        string
	Message      string
	Remediations []string
	Alternatives bool // attach the free-tier alternative list
	AutoRetry    bool
	RetryDelayMs int
}

var catalog = map[Kind]template{
	KindInvalidAPIKey: {
		Icon:    "🔑",
		Title:   "Invalid API key",
		Message: "The provider rejected the API key.",
		Remediations: []string{
			"Check the key for typos or stray whitespace.",
			"Generate a fresh key in the provider dashboard.",
			"Make sure the key belongs to the selected provider.",
		},
		Alternatives: true,
	},
	KindInsufficientQuota: {
		Icon:    "💳",
		Title:   "Quota exhausted",
		Message: "The account has no remaining credit for this provider.",
		Remediations: []string{
			"Add credit or upgrade the plan in the provider dashboard.",
			"Switch to a free-tier provider to keep generating.",
		},
		Alternatives: true,
	},
	KindBillingHardLimit: {
		Icon:    "🧾",
		Title:   "Billing limit reached",
		Message: "The account hit its configured hard billing limit.",
		Remediations: []string{
			"Raise the billing limit in the provider dashboard.",
			"Switch to a free-tier provider in the meantime.",
		},
		Alternatives: true,
	},
	KindPaymentRequired: {
		Icon:    "💰",
		Title:   "Payment required",
		Message: "The provider requires an active payment method for this model.",
		Remediations: []string{
			"Add a payment method in the provider dashboard.",
			"Pick one of the free models instead.",
		},
		Alternatives: true,
	},
	KindRateLimitExceeded: {
		Icon:    "⏳",
		Title:   "Rate limited",
		Message: "Too many requests in a short window. The provider asked us to slow down.",
		Remediations: []string{
			"Wait a few seconds and try again.",
		},
		AutoRetry:    true,
		RetryDelayMs: 5000,
	},
	KindDailyLimitReached: {
		Icon:    "📅",
		Title:   "Daily limit reached",
		Message: "The free daily allowance for this provider is used up.",
		Remediations: []string{
			"Try again after the daily reset.",
			"Switch to another free provider for today.",
		},
		Alternatives: true,
	},
	KindModelNotFound: {
		Icon:    "🔍",
		Title:   "Model not found",
		Message: "The requested model id is unknown to this provider.",
		Remediations: []string{
			"Pick a model from the provider's model list.",
			"The model may have been renamed or retired.",
		},
	},
	KindContextLengthExceeded: {
		Icon:    "📏",
		Title:   "Prompt too long",
		Message: "The prompt exceeds the model's context window.",
		Remediations: []string{
			"Shorten the request.",
			"Switch to a model with a larger context window.",
		},
	},
	KindNetworkError: {
		Icon:    "📡",
		Title:   "Network error",
		Message: "Could not reach the provider.",
		Remediations: []string{
			"Check the internet connection.",
			"The provider may be temporarily unreachable.",
		},
		AutoRetry:    true,
		RetryDelayMs: 3000,
	},
	KindTimeout: {
		Icon:    "⌛",
		Title:   "Request timed out",
		Message: "The provider did not respond in time.",
		Remediations: []string{
			"Try again; the provider may be under load.",
			"Reduce max tokens to shorten the generation.",
		},
		AutoRetry:    true,
		RetryDelayMs: 4000,
	},
	KindServiceUnavailable: {
		Icon:    "🛠️",
		Title:   "Service unavailable",
		Message: "The provider is overloaded or down for maintenance.",
		Remediations: []string{
			"Wait a moment and retry.",
			"Switch providers if the outage persists.",
		},
		Alternatives: true,
		AutoRetry:    true,
		RetryDelayMs: 8000,
	},
	KindContentPolicyViolation: {
		Icon:    "🚫",
		Title:   "Content policy violation",
		Message: "The provider refused the request on content-policy grounds.",
		Remediations: []string{
			"Rephrase the request.",
		},
	},
	KindPromptInjection: {
		Icon:    "🛡️",
		Title:   "Request blocked",
		Message: "The input matched a forbidden pattern and was not sent.",
		Remediations: []string{
			"Describe ingredients or a dish instead.",
		},
	},
	KindCORSError: {
		Icon:    "🌐",
		Title:   "Cross-origin request blocked",
		Message: "The provider does not accept direct browser requests.",
		Remediations: []string{
			"Route this provider through the relay.",
		},
	},
	KindUnknown: {
		Icon:    "❓",
		Title:   "Unexpected error",
		Message: "Something went wrong talking to the provider.",
		Remediations: []string{
			"Try again; if it persists, switch providers.",
		},
		Alternatives: true,
	},
}

// freeAlternatives lists providers with usable free tiers, in the order
// they are suggested to callers.
var freeAlternatives = []Alternative{
	{ProviderID: "groq", Name: "Groq", Note: "fast free tier"},
	{ProviderID: "gemini", Name: "Google Gemini", Note: "generous free quota"},
	{ProviderID: "openrouter", Name: "OpenRouter", Note: "free community models"},
	{ProviderID: "huggingface", Name: "Hugging Face", Note: "free inference API"},
	{ProviderID: "cerebras", Name: "Cerebras", Note: "free tier"},
}

// dashboardLinks maps provider ids to their key-management consoles.
var dashboardLinks = map[string]string{
	"openai":      "https://platform.openai.com/api-keys",
	"groq":        "https://console.groq.com/keys",
	"mistral":     "https://console.mistral.ai/api-keys",
	"deepseek":    "https://platform.deepseek.com/api_keys",
	"openrouter":  "https://openrouter.ai/keys",
	"together":    "https://api.together.xyz/settings/api-keys",
	"cerebras":    "https://cloud.cerebras.ai/platform",
	"perplexity":  "https://www.perplexity.ai/settings/api",
	"anthropic":   "https://console.anthropic.com/settings/keys",
	"gemini":      "https://aistudio.google.com/apikey",
	"huggingface": "https://huggingface.co/settings/tokens",
}

// build materializes one CanonicalError from the catalog. The slices are
// copied so a caller can never mutate the tables through a returned error.
func build(kind Kind, provider string, status int, detail string) *CanonicalError {
	tmpl, ok := catalog[kind]
	if !ok {
		tmpl = catalog[KindUnknown]
		kind = KindUnknown
	}

	message := tmpl.Message
	if detail != "" {
		message = detail
	}

	ce := &CanonicalError{
		Kind:         kind,
		Icon:         tmpl.Icon,
		Title:        tmpl.Title,
		Message:      message,
		Remediations: append([]string(nil), tmpl.Remediations...),
		AutoRetry:    tmpl.AutoRetry,
		RetryDelayMs: tmpl.RetryDelayMs,
		Provider:     provider,
		Status:       status,
	}

	if tmpl.Alternatives {
		alts := make([]Alternative, 0, len(freeAlternatives))
		for _, alt := range freeAlternatives {
			if alt.ProviderID != provider {
				alts = append(alts, alt)
			}
		}
		ce.Alternatives = alts
	}

	ce.ProviderLinks = make(map[string]string, 1)
	if link, ok := dashboardLinks[provider]; ok {
		ce.ProviderLinks[provider] = link
	}

	return ce
}
