package handlers

import (
	"net/http"
	"strings"

	"kitchenops/internal/format"
	applog "kitchenops/internal/log"
	"kitchenops/internal/scaling"
)

type scaledIngredientResponse struct {
	Quantity        float64                    `json:"quantity"`
	DisplayQuantity string                     `json:"display_quantity"`
	Unit            string                     `json:"unit"`
	ItemName        string                     `json:"item_name"`
	IsOptional      bool                       `json:"is_optional"`
	Notes           string                     `json:"notes"`
	SubRecipeID     *uint                      `json:"sub_recipe_id,omitempty"`
	Components      []scaledIngredientResponse `json:"components,omitempty"`
}

type scaleResponse struct {
	RecipeID       uint                       `json:"recipe_id"`
	RecipeName     string                     `json:"recipe_name"`
	BaseServings   float64                    `json:"base_servings"`
	TargetServings float64                    `json:"target_servings"`
	ScaleFactor    float64                    `json:"scale_factor"`
	TotalTime      string                     `json:"total_time"`
	Ingredients    []scaledIngredientResponse `json:"ingredients"`
	Expanded       []scaledIngredientResponse `json:"expanded,omitempty"`
	ShoppingList   []scaledIngredientResponse `json:"shopping_list,omitempty"`
}

// ScaleRecipe returns the recipe's ingredient list scaled to the requested servings.
// With expand=true every sub-recipe line is replaced by its scaled components.
func ScaleRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "scale request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	recipeID, ok := recipeIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	recipes, err := loadRecipeBook(ctx, userID)
	if err != nil {
		writeRecipeError(w, r, err, "scale recipe")
		return
	}
	book := indexRecipeBook(recipes)
	stored, ok := book[recipeID]
	if !ok {
		writeRecipeError(w, r, errRecipeNotFound, "scale recipe")
		return
	}
	recipe := toScalingRecipe(stored, book)

	target := recipe.BaseServings
	if raw := r.URL.Query().Get("servings"); strings.TrimSpace(raw) != "" {
		target, err = parseServings(raw)
		if err != nil {
			applog.Debug(ctx, "rejected servings value", "servings", raw)
			writeRecipeError(w, r, err, "scale recipe")
			return
		}
	}

	expand, err := parseExpand(r.URL.Query().Get("expand"))
	if err != nil {
		writeRecipeError(w, r, err, "scale recipe")
		return
	}

	result := scaling.Scale(recipe, target)
	response := scaleResponse{
		RecipeID:       recipe.ID,
		RecipeName:     recipe.Name,
		BaseServings:   recipe.BaseServings,
		TargetServings: target,
		ScaleFactor:    result.ScaleFactor,
		TotalTime:      format.FormatTime(recipe.PrepTimeMinutes + recipe.CookTimeMinutes),
		Ingredients:    projectScaledIngredients(result.Ingredients),
	}

	if expand {
		tree, err := scaling.Expand(recipe.ID, result.Ingredients, recipeSource(book), scaling.ExpandOptions{MaxDepth: maxExpansion})
		if err != nil {
			applog.Debug(ctx, "sub-recipe expansion failed", "recipeID", recipeID, "error", err)
			writeRecipeError(w, r, err, "expand recipe")
			return
		}
		response.Expanded = projectExpanded(tree)
		response.ShoppingList = projectScaledIngredients(scaling.Flatten(tree))
	}

	applog.Debug(ctx, "recipe scaled", "recipeID", recipeID, "target", target, "factor", result.ScaleFactor, "expand", expand)
	writeJSON(w, http.StatusOK, response)
}

func projectScaledIngredient(ingredient scaling.Ingredient) scaledIngredientResponse {
	response := scaledIngredientResponse{
		Quantity:        ingredient.Quantity,
		DisplayQuantity: format.FormatQuantity(ingredient.Quantity),
		Unit:            ingredient.Unit,
		ItemName:        ingredient.ItemName,
		IsOptional:      ingredient.IsOptional,
		Notes:           ingredient.Notes,
	}
	if ingredient.SubRecipe != nil {
		id := ingredient.SubRecipe.ID
		response.SubRecipeID = &id
	}
	return response
}

func projectScaledIngredients(ingredients []scaling.Ingredient) []scaledIngredientResponse {
	out := make([]scaledIngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		out = append(out, projectScaledIngredient(ingredient))
	}
	return out
}

func projectExpanded(tree []scaling.ExpandedIngredient) []scaledIngredientResponse {
	out := make([]scaledIngredientResponse, 0, len(tree))
	for _, node := range tree {
		response := projectScaledIngredient(node.Ingredient)
		if len(node.Components) > 0 {
			response.Components = projectExpanded(node.Components)
		}
		out = append(out, response)
	}
	return out
}
