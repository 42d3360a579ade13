package scaling

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth bounds how deeply nested sub-recipes are expanded.
const DefaultMaxDepth = 8

var (
	ErrCircularReference = errors.New("scaling: circular sub-recipe reference")
	ErrSubRecipeNotFound = errors.New("scaling: sub-recipe not found")
	ErrMaxDepth          = errors.New("scaling: sub-recipe nesting too deep")
)

// Source resolves sub-recipes by identifier.
type Source interface {
	Recipe(id uint) (Recipe, bool)
}

// MapSource is a Source backed by a map keyed on recipe ID.
type MapSource map[uint]Recipe

// Recipe implements Source.
func (m MapSource) Recipe(id uint) (Recipe, bool) {
	recipe, ok := m[id]
	return recipe, ok
}

// ExpandOptions tunes Expand. The zero value is usable.
type ExpandOptions struct {
	MaxDepth int
}

// ExpandedIngredient is an ingredient together with the expansion of its sub-recipe.
type ExpandedIngredient struct {
	Ingredient
	Depth      int
	Path       []uint
	Components []ExpandedIngredient
}

// Expand walks the ingredient list and replaces every sub-recipe line with its scaled
// components. The quantity of a sub-recipe line is read as the number of servings of the
// sub-recipe required. rootID, when non-zero, seeds cycle detection.
func Expand(rootID uint, ingredients []Ingredient, source Source, opts ExpandOptions) ([]ExpandedIngredient, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	path := []uint{}
	visiting := map[uint]bool{}
	if rootID != 0 {
		path = append(path, rootID)
		visiting[rootID] = true
	}

	e := expander{source: source, maxDepth: maxDepth, visiting: visiting}
	return e.expand(ingredients, path, 0)
}

type expander struct {
	source   Source
	maxDepth int
	visiting map[uint]bool
}

func (e *expander) expand(ingredients []Ingredient, path []uint, depth int) ([]ExpandedIngredient, error) {
	if depth > e.maxDepth {
		return nil, fmt.Errorf("%w: depth %d", ErrMaxDepth, depth)
	}

	out := make([]ExpandedIngredient, 0, len(ingredients))
	for _, ingredient := range ingredients {
		node := ExpandedIngredient{
			Ingredient: ingredient,
			Depth:      depth,
			Path:       append([]uint(nil), path...),
		}

		if ingredient.SubRecipe == nil || ingredient.SubRecipe.ID == 0 {
			out = append(out, node)
			continue
		}

		id := ingredient.SubRecipe.ID
		if e.visiting[id] {
			return nil, fmt.Errorf("%w: recipe %d", ErrCircularReference, id)
		}
		if e.source == nil {
			return nil, fmt.Errorf("%w: recipe %d", ErrSubRecipeNotFound, id)
		}
		sub, ok := e.source.Recipe(id)
		if !ok {
			return nil, fmt.Errorf("%w: recipe %d", ErrSubRecipeNotFound, id)
		}

		scaled := ExpandSubRecipeIngredients(sub.Ingredients, ingredient.Quantity, sub.BaseServings)

		e.visiting[id] = true
		components, err := e.expand(scaled, append(node.Path, id), depth+1)
		e.visiting[id] = false
		if err != nil {
			return nil, err
		}
		node.Components = components
		out = append(out, node)
	}
	return out, nil
}

// Flatten returns the leaf ingredients of an expanded tree in depth-first order.
func Flatten(tree []ExpandedIngredient) []Ingredient {
	var leaves []Ingredient
	var walk func(nodes []ExpandedIngredient)
	walk = func(nodes []ExpandedIngredient) {
		for _, node := range nodes {
			if len(node.Components) > 0 {
				walk(node.Components)
				continue
			}
			if node.SubRecipe != nil && node.SubRecipe.ID != 0 {
				continue
			}
			leaves = append(leaves, node.Ingredient)
		}
	}
	walk(tree)
	return leaves
}
