// Package scaling converts recipe ingredient quantities between serving counts.
package scaling

import "math"

// SubRecipeRef identifies a recipe used as an ingredient of another recipe.
type SubRecipeRef struct {
	ID           uint
	BaseServings float64
}

// Ingredient is a single line of a recipe. Only Quantity is touched by scaling.
type Ingredient struct {
	Quantity   float64
	Unit       string
	ItemName   string
	IsOptional bool
	Notes      string
	SubRecipe  *SubRecipeRef
}

// Recipe is the read-only source a scaling request starts from.
type Recipe struct {
	ID              uint
	Name            string
	BaseServings    float64
	Ingredients     []Ingredient
	PrepTimeMinutes int
	CookTimeMinutes int
}

// Result is derived per request and never persisted.
type Result struct {
	ScaleFactor float64
	Ingredients []Ingredient
}

// Round2 rounds half-up to two decimal places.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// CalculateScaleFactor returns target/original, or 1 when original is not positive.
func CalculateScaleFactor(originalServings, targetServings float64) float64 {
	if !(originalServings > 0) {
		return 1
	}
	factor := targetServings / originalServings
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return 1
	}
	return factor
}

// ScaleIngredients returns a copy of ingredients with every quantity multiplied by the
// scale factor and rounded to two decimals. Order, length and all other fields are kept.
func ScaleIngredients(ingredients []Ingredient, originalServings, targetServings float64) []Ingredient {
	return applyFactor(ingredients, CalculateScaleFactor(originalServings, targetServings))
}

// Scale builds the scaling result for a recipe at the requested serving count.
func Scale(recipe Recipe, targetServings float64) Result {
	return Result{
		ScaleFactor: CalculateScaleFactor(recipe.BaseServings, targetServings),
		Ingredients: ScaleIngredients(recipe.Ingredients, recipe.BaseServings, targetServings),
	}
}

// CalculateSubRecipeScale is the factor applied to a sub-recipe when the parent needs
// requestedServings of it.
func CalculateSubRecipeScale(requestedServings, subRecipeBaseServings float64) float64 {
	return CalculateScaleFactor(subRecipeBaseServings, requestedServings)
}

// ExpandSubRecipeIngredients scales a sub-recipe's ingredients with the same rounding
// rule as ScaleIngredients.
func ExpandSubRecipeIngredients(subIngredients []Ingredient, requestedServings, subRecipeBaseServings float64) []Ingredient {
	return applyFactor(subIngredients, CalculateSubRecipeScale(requestedServings, subRecipeBaseServings))
}

func applyFactor(ingredients []Ingredient, factor float64) []Ingredient {
	scaled := make([]Ingredient, len(ingredients))
	for i, ingredient := range ingredients {
		scaled[i] = ingredient
		if ingredient.SubRecipe != nil {
			ref := *ingredient.SubRecipe
			scaled[i].SubRecipe = &ref
		}
		scaled[i].Quantity = Round2(ingredient.Quantity * factor)
	}
	return scaled
}
