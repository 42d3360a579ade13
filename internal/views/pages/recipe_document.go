package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kitchenops/internal/format"
	"kitchenops/internal/scaling"
)

var (
	nowFunc      = time.Now
	newReference = uuid.NewString
)

// RecipeDocumentLine is one printed ingredient row. Sub-recipe rows carry their
// scaled components.
type RecipeDocumentLine struct {
	Quantity   string
	Unit       string
	Amount     string
	ItemName   string
	Notes      string
	Optional   bool
	Components []RecipeDocumentLine
}

// RecipeDocumentData holds the formatted values embedded in the printable recipe.
type RecipeDocumentData struct {
	Reference      string
	RecipeName     string
	Description    string
	Category       string
	BaseServings   string
	TargetServings string
	ScaleFactor    float64
	ScaleLabel     string
	PrepTime       string
	CookTime       string
	TotalTime      string
	Ingredients    []RecipeDocumentLine
	Instructions   []string
	PrintedAt      time.Time
}

// RecipeDocumentInput is the recipe plus the presentation-only fields the document prints.
// With SubRecipes nil, sub-recipe lines print without their components.
type RecipeDocumentInput struct {
	Recipe       scaling.Recipe
	Description  string
	Category     string
	Instructions string
	SubRecipes   scaling.Source
	MaxDepth     int
}

// BuildRecipeDocument computes the scale factor once, scales the ingredient list once
// and formats every quantity and time for printing. Sub-recipes are expanded through
// scaling.Expand up to input.MaxDepth and its sentinel errors are wrapped.
func BuildRecipeDocument(input RecipeDocumentInput, targetServings float64) (RecipeDocumentData, error) {
	recipe := input.Recipe
	factor := scaling.CalculateScaleFactor(recipe.BaseServings, targetServings)
	scaled := scaling.ScaleIngredients(recipe.Ingredients, recipe.BaseServings, targetServings)

	var lines []RecipeDocumentLine
	if input.SubRecipes == nil {
		lines = make([]RecipeDocumentLine, 0, len(scaled))
		for _, ingredient := range scaled {
			lines = append(lines, documentLine(ingredient))
		}
	} else {
		tree, err := scaling.Expand(recipe.ID, scaled, input.SubRecipes, scaling.ExpandOptions{MaxDepth: input.MaxDepth})
		if err != nil {
			return RecipeDocumentData{}, fmt.Errorf("expand sub-recipes of %q: %w", recipe.Name, err)
		}
		lines = documentTree(tree)
	}

	return RecipeDocumentData{
		Reference:      newReference(),
		RecipeName:     strings.TrimSpace(recipe.Name),
		Description:    strings.TrimSpace(input.Description),
		Category:       strings.TrimSpace(input.Category),
		BaseServings:   format.FormatQuantity(recipe.BaseServings),
		TargetServings: format.FormatQuantity(targetServings),
		ScaleFactor:    factor,
		ScaleLabel:     "×" + format.FormatQuantity(factor),
		PrepTime:       format.FormatTime(recipe.PrepTimeMinutes),
		CookTime:       format.FormatTime(recipe.CookTimeMinutes),
		TotalTime:      format.FormatTime(recipe.PrepTimeMinutes + recipe.CookTimeMinutes),
		Ingredients:    lines,
		Instructions:   instructionSteps(input.Instructions),
		PrintedAt:      nowFunc().UTC(),
	}, nil
}

func documentTree(nodes []scaling.ExpandedIngredient) []RecipeDocumentLine {
	var lines []RecipeDocumentLine
	for _, node := range nodes {
		line := documentLine(node.Ingredient)
		line.Components = documentTree(node.Components)
		lines = append(lines, line)
	}
	return lines
}

func documentLine(ingredient scaling.Ingredient) RecipeDocumentLine {
	return RecipeDocumentLine{
		Quantity: format.FormatQuantity(ingredient.Quantity),
		Unit:     strings.TrimSpace(ingredient.Unit),
		Amount:   format.FormatQuantityUnit(ingredient.Quantity, ingredient.Unit),
		ItemName: strings.TrimSpace(ingredient.ItemName),
		Notes:    strings.TrimSpace(ingredient.Notes),
		Optional: ingredient.IsOptional,
	}
}

func instructionSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			steps = append(steps, trimmed)
		}
	}
	return steps
}

// FormatPrintedDate renders the print timestamp using a kitchen-friendly layout.
func FormatPrintedDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006 15:04")
}

// nestingMarker prefixes components below the first sub-recipe level.
func nestingMarker(depth int) string {
	if depth < 2 {
		return ""
	}
	return strings.Repeat("· ", depth-1)
}
