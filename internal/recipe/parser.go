package recipe

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Heading synonym lists, English and Spanish. A heading matches a
// section when any synonym appears in the (emoji-stripped) heading text.
var sectionSynonyms = map[string][]string{
	"ingredients":  {"ingredients", "ingredientes"},
	"instructions": {"instructions", "steps", "preparation", "directions", "instrucciones", "preparación", "preparacion", "pasos", "elaboración", "elaboracion"},
	"tips":         {"tips", "notes", "consejos", "notas", "trucos"},
	"allergens":    {"allergen", "allergy", "alérgenos", "alergenos", "alergias"},
	"nutrition":    {"nutrition", "nutritional", "nutrients", "nutrición", "nutricion", "nutrientes", "valores nutricionales"},
}

var (
	headingLine   = regexp.MustCompile(`^(#{2,3})\s*(.+)$`)
	boldTitleLine = regexp.MustCompile(`(?i)\*\*\s*(?:recipe|receta)\s*:?\s*\*\*\s*:?\s*(.+)`)

	numberedItem = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)
	bulletItem   = regexp.MustCompile(`^[-*•]\s+(.+)$`)

	prepTimeRe  = regexp.MustCompile(`(?i)(?:prep|preparación|preparacion)\D{0,12}(\d+)\s*(?:min|minutes?|minutos?)`)
	cookTimeRe  = regexp.MustCompile(`(?i)(?:cook(?:ing)?|cocción|coccion|cocinado)\D{0,12}(\d+)\s*(?:min|minutes?|minutos?)`)
	totalTimeRe = regexp.MustCompile(`(?i)(?:total(?:\s+time)?|tiempo\s+total)\D{0,12}(\d+)\s*(?:min|minutes?|minutos?)`)
	servingsRe  = regexp.MustCompile(`(?i)(?:servings?|serves|porciones|personas|raciones)\D{0,12}(\d+)`)

	// ingredient patterns, tried in order
	qtyUnitName = regexp.MustCompile(`(?i)^((?:\d+[\d/.,]*|[¼½¾⅓⅔])\s*(?:g|gr|grams?|gramos?|kg|ml|l|cups?|tazas?|tbsp|tsp|cucharadas?|cucharaditas?|oz|lbs?|cloves?|dientes?|units?|unidades?|piezas?|pinch|pizca|slices?|rebanadas?)\.?)\s+(?:of\s+|de\s+)?(.+)$`)
	qtyName     = regexp.MustCompile(`^((?:\d+[\d/.,]*|[¼½¾⅓⅔]))\s+(.+)$`)
	toTasteName = regexp.MustCompile(`(?i)^(.+?)[,\s]+(al\s+gusto|to\s+taste)$`)

	allergenMarker = regexp.MustCompile(`(?i)⚠️|\(all?erg[eé]n[oe]?s?\)|\(alergia\)`)

	caloriesRe = regexp.MustCompile(`(?i)(?:calor[ií]e?s?|kcal|energy|energ[ií]a)\D{0,8}(\d+(?:\.\d+)?)`)
	proteinRe  = regexp.MustCompile(`(?i)prote[ií]n[as]?s?\D{0,8}(\d+(?:\.\d+)?)`)
	carbsRe    = regexp.MustCompile(`(?i)(?:carbs?|carbohydrates?|carbohidratos)\D{0,8}(\d+(?:\.\d+)?)`)
	fatRe      = regexp.MustCompile(`(?i)(?:fats?|grasas?)\D{0,8}(\d+(?:\.\d+)?)`)
)

// Parse converts generated markdown into a Recipe. It never fails:
// whatever cannot be located degrades to its zero value or default.
// Everything except the generated ID is a pure function of the input.
func Parse(text string) Recipe {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	r := Recipe{
		ID:    uuid.NewString(),
		Title: parseTitle(lines),
	}

	r.PrepTimeMinutes, r.CookTimeMinutes = parseTimings(text)
	r.Servings = parseServings(text)

	sections := sliceSections(lines)

	r.Ingredients = parseIngredients(sections["ingredients"])
	r.Instructions = parseInstructions(sections["instructions"])
	r.Tips = strings.TrimSpace(strings.Join(sections["tips"], "\n"))
	r.AllergenNotice = strings.TrimSpace(strings.Join(sections["allergens"], "\n"))
	r.Nutrients = parseNutrients(sections["nutrition"])

	return r
}

// parseTitle applies the ordered title patterns: a level-2 heading with
// an optional leading emoji, a bold Recipe: label, then the first
// non-blank line.
func parseTitle(lines []string) string {
	for _, line := range lines {
		if m := headingLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil && len(m[1]) == 2 {
			if title := stripDecorations(m[2]); title != "" && sectionFor(title) == "" {
				return title
			}
		}
	}

	for _, line := range lines {
		if m := boldTitleLine.FindStringSubmatch(line); m != nil {
			if title := stripDecorations(strings.TrimSuffix(m[1], "**")); title != "" {
				return title
			}
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || headingLine.MatchString(trimmed) ||
			bulletItem.MatchString(trimmed) || numberedItem.MatchString(trimmed) {
			continue
		}

		if title := stripDecorations(trimmed); title != "" {
			return title
		}
	}

	return ""
}

// stripDecorations removes markdown emphasis, leading emoji, and list
// punctuation from a candidate title or heading.
func stripDecorations(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.TrimSpace(s)

	// drop leading emoji and other symbols
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			start = i
			break
		}
	}

	if start < 0 {
		return ""
	}

	return strings.TrimSpace(s[start:])
}

// sectionFor matches a heading text against the synonym lists.
func sectionFor(heading string) string {
	lower := strings.ToLower(stripDecorations(heading))

	for section, synonyms := range sectionSynonyms {
		for _, syn := range synonyms {
			if strings.Contains(lower, syn) {
				return section
			}
		}
	}

	return ""
}

// sliceSections walks the document once, collecting the body lines of
// every recognized section up to the next heading of the same or higher
// level.
func sliceSections(lines []string) map[string][]string {
	sections := make(map[string][]string)

	current := ""
	currentLevel := 0

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if m := headingLine.FindStringSubmatch(line); m != nil {
			level := len(m[1])

			if current != "" && level <= currentLevel {
				current = ""
			}

			if section := sectionFor(m[2]); section != "" {
				current = section
				currentLevel = level

				continue
			}

			continue
		}

		if current != "" && line != "" {
			sections[current] = append(sections[current], line)
		}
	}

	return sections
}

// parseIngredients applies the ordered ingredient patterns to each list
// item: quantity+unit+name, quantity+name, "to taste", then raw text.
func parseIngredients(lines []string) []Ingredient {
	var out []Ingredient

	for _, line := range lines {
		item := line
		if m := bulletItem.FindStringSubmatch(line); m != nil {
			item = m[1]
		} else if m := numberedItem.FindStringSubmatch(line); m != nil {
			item = m[1]
		}

		isAllergen := allergenMarker.MatchString(item)
		item = strings.TrimSpace(allergenMarker.ReplaceAllString(item, ""))
		item = strings.TrimSpace(strings.ReplaceAll(item, "**", ""))

		if item == "" {
			continue
		}

		out = append(out, parseIngredientLine(item, isAllergen))
	}

	return out
}

func parseIngredientLine(item string, isAllergen bool) Ingredient {
	if m := qtyUnitName.FindStringSubmatch(item); m != nil {
		return Ingredient{
			Name:       strings.TrimSpace(m[2]),
			Amount:     strings.TrimSpace(m[1]),
			IsAllergen: isAllergen,
		}
	}

	if m := qtyName.FindStringSubmatch(item); m != nil {
		return Ingredient{
			Name:       strings.TrimSpace(m[2]),
			Amount:     strings.TrimSpace(m[1]),
			IsAllergen: isAllergen,
		}
	}

	if m := toTasteName.FindStringSubmatch(item); m != nil {
		return Ingredient{
			Name:       strings.TrimSpace(m[1]),
			Amount:     strings.ToLower(strings.Join(strings.Fields(m[2]), " ")),
			IsAllergen: isAllergen,
		}
	}

	return Ingredient{Name: item, IsAllergen: isAllergen}
}

// parseInstructions accepts numbered and bulleted items in document
// order, one step per item.
func parseInstructions(lines []string) []string {
	var out []string

	for _, line := range lines {
		if m := numberedItem.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[1]))
		} else if m := bulletItem.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[1]))
		}
	}

	return out
}

// parseTimings extracts prep and cook minutes. When only a total figure
// is present it is split 30/70 between prep and cook, matching the
// behavior recipes were historically parsed with.
func parseTimings(text string) (prep, cook int) {
	prep, cook = -1, -1

	if m := prepTimeRe.FindStringSubmatch(text); m != nil {
		prep = atoi(m[1], DefaultPrepMinutes)
	}

	if m := cookTimeRe.FindStringSubmatch(text); m != nil {
		cook = atoi(m[1], DefaultCookMinutes)
	}

	if prep >= 0 || cook >= 0 {
		if prep < 0 {
			prep = DefaultPrepMinutes
		}
		if cook < 0 {
			cook = DefaultCookMinutes
		}

		return prep, cook
	}

	if m := totalTimeRe.FindStringSubmatch(text); m != nil {
		total := atoi(m[1], DefaultPrepMinutes+DefaultCookMinutes)
		prep = total * 30 / 100
		cook = total - prep

		return prep, cook
	}

	return DefaultPrepMinutes, DefaultCookMinutes
}

func parseServings(text string) int {
	if m := servingsRe.FindStringSubmatch(text); m != nil {
		return atoi(m[1], DefaultServings)
	}

	return DefaultServings
}

// parseNutrients reads the nutrition section line by line. Nil when the
// section is absent or carries no recognizable figures.
func parseNutrients(lines []string) *Nutrients {
	if len(lines) == 0 {
		return nil
	}

	text := strings.Join(lines, "\n")

	n := &Nutrients{}
	found := false

	if m := caloriesRe.FindStringSubmatch(text); m != nil {
		n.Calories = m[1] + " kcal"
		found = true
	}

	if m := proteinRe.FindStringSubmatch(text); m != nil {
		n.Protein = m[1] + "g"
		found = true
	}

	if m := carbsRe.FindStringSubmatch(text); m != nil {
		n.Carbs = m[1] + "g"
		found = true
	}

	if m := fatRe.FindStringSubmatch(text); m != nil {
		n.Fat = m[1] + "g"
		found = true
	}

	if !found {
		return nil
	}

	return n
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}

	return n
}
