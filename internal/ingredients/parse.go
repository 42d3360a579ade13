// Package ingredients parses free-text ingredient lines such as "1 1/2 cups milk".
package ingredients

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyLine = errors.New("ingredients: empty line")
	ErrNoItem    = errors.New("ingredients: missing item name")
)

var (
	bulletPattern    = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)]\s)\s*`)
	mixedPattern     = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)\b`)
	fractionPattern  = regexp.MustCompile(`^(\d+)/(\d+)\b`)
	decimalPattern   = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)`)
	parenthesesNotes = regexp.MustCompile(`\(([^)]*)\)`)
	cleanWhitespace  = regexp.MustCompile(`\s+`)
	headerPattern    = regexp.MustCompile(`(?i)^(ingredients|method|directions|steps)\s*:?\s*$`)
	optionalMarkers  = []string{"optional", "if desired"}
	unicodeFractions = map[rune]float64{'½': 0.5, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '¼': 0.25, '¾': 0.75, '⅛': 0.125}
)

var knownUnits = map[string]string{
	"g": "g", "gram": "g", "grams": "g", "gr": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"cl": "cl", "dl": "dl",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"cup": "cup", "cups": "cup",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"pc": "pcs", "pcs": "pcs", "piece": "pcs", "pieces": "pcs",
	"pinch": "pinch", "pinches": "pinch",
	"bunch": "bunch", "bunches": "bunch",
	"clove": "clove", "cloves": "clove",
	"can": "can", "cans": "can",
	"slice": "slice", "slices": "slice",
	"portion": "portion", "portions": "portion",
	"serving": "serving", "servings": "serving",
	"batch": "batch", "batches": "batch",
}

// Line is a parsed ingredient line. Units are normalised spellings, never converted.
type Line struct {
	Quantity   float64
	Unit       string
	ItemName   string
	IsOptional bool
	Notes      string
}

// ParseLine parses a single ingredient line. Lines without a leading amount get a
// quantity of zero.
func ParseLine(raw string) (Line, error) {
	text := strings.TrimSpace(bulletPattern.ReplaceAllString(raw, ""))
	text = cleanWhitespace.ReplaceAllString(text, " ")
	if text == "" {
		return Line{}, ErrEmptyLine
	}

	var line Line
	var notes []string

	for _, match := range parenthesesNotes.FindAllStringSubmatch(text, -1) {
		if note := strings.TrimSpace(match[1]); note != "" {
			notes = append(notes, note)
		}
	}
	text = strings.TrimSpace(parenthesesNotes.ReplaceAllString(text, ""))

	if idx := strings.Index(text, ", "); idx >= 0 {
		if note := strings.TrimSpace(text[idx+2:]); note != "" {
			notes = append(notes, note)
		}
		text = strings.TrimSpace(text[:idx])
	}

	quantity, rest := parseQuantity(text)
	line.Quantity = quantity
	rest = strings.TrimSpace(rest)

	if fields := strings.Fields(rest); len(fields) > 1 {
		if unit, ok := knownUnits[strings.ToLower(strings.TrimSuffix(fields[0], "."))]; ok {
			line.Unit = unit
			rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "of "))
		}
	}

	line.ItemName = strings.TrimSpace(rest)
	if line.ItemName == "" {
		return Line{}, ErrNoItem
	}

	kept := notes[:0]
	for _, note := range notes {
		lower := strings.ToLower(note)
		optional := false
		for _, marker := range optionalMarkers {
			if strings.Contains(lower, marker) {
				optional = true
				break
			}
		}
		if optional {
			line.IsOptional = true
			if lower == "optional" {
				continue
			}
		}
		kept = append(kept, note)
	}
	line.Notes = strings.Join(kept, "; ")

	return line, nil
}

// ParseText parses a block of text, one ingredient per line, skipping blank lines and
// section headers. Lines that fail to parse are reported by index in the returned skipped slice.
func ParseText(text string) ([]Line, []int) {
	var lines []Line
	var skipped []int
	for idx, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || headerPattern.MatchString(trimmed) {
			continue
		}
		line, err := ParseLine(trimmed)
		if err != nil {
			skipped = append(skipped, idx)
			continue
		}
		lines = append(lines, line)
	}
	return lines, skipped
}

func parseQuantity(text string) (float64, string) {
	if m := mixedPattern.FindStringSubmatch(text); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den != 0 {
			return whole + num/den, text[len(m[0]):]
		}
	}
	if m := fractionPattern.FindStringSubmatch(text); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			return num / den, text[len(m[0]):]
		}
	}

	value := 0.0
	rest := text
	if m := decimalPattern.FindStringSubmatch(text); m != nil {
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			value = parsed
			rest = text[len(m[0]):]
		}
	}

	if r, size := utf8.DecodeRuneInString(rest); size > 0 {
		if fraction, ok := unicodeFractions[r]; ok {
			value += fraction
			rest = rest[size:]
		}
	}

	return value, rest
}
