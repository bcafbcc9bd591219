// Package recipe reconstructs a structured recipe record from generated
// markdown. The parser is heuristic, not a grammar: model output only
// approximates the requested template, so every stage degrades to empty
// fields instead of failing.
package recipe

// Ingredient is one parsed ingredient line.
type Ingredient struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	IsAllergen bool   `json:"isAllergen"`
}

// Nutrients is the per-serving nutrition summary, kept as the raw
// figures the model printed.
type Nutrients struct {
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

// Recipe is the best-effort reconstruction of a generated recipe
// document. It is derived, never authoritative.
type Recipe struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	PrepTimeMinutes int          `json:"prepTimeMinutes"`
	CookTimeMinutes int          `json:"cookTimeMinutes"`
	Servings        int          `json:"servings"`
	Ingredients     []Ingredient `json:"ingredients"`
	Instructions    []string     `json:"instructions"`
	Tips            string       `json:"tips,omitempty"`
	AllergenNotice  string       `json:"allergenNotice,omitempty"`
	Nutrients       *Nutrients   `json:"nutrients,omitempty"`
}

// Defaults applied when the document carries no timing or serving
// figures at all.
const (
	DefaultPrepMinutes = 15
	DefaultCookMinutes = 20
	DefaultServings    = 2
)
