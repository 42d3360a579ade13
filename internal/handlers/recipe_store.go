package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	applog "kitchenops/internal/log"
	"kitchenops/internal/scaling"
	"kitchenops/models"
)

var (
	errRecipeNotFound    = errors.New("recipes: recipe not found")
	errInvalidServings   = errors.New("recipes: servings must be a number greater than zero")
	errUnknownSubRecipe  = errors.New("recipes: sub-recipe does not exist")
	errSubRecipeCycle    = errors.New("recipes: sub-recipe would create a circular reference")
	errRecipeInUse       = errors.New("recipes: recipe is used as a sub-recipe")
	errNoIngredientLines = errors.New("recipes: no ingredient lines found")
	errInvalidExpand     = errors.New("recipes: expand must be true or false")
)

func orderedIngredients(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

// loadRecipe fetches one recipe owned by ownerID with its ingredient lines in order.
func loadRecipe(ctx context.Context, ownerID, recipeID uint) (models.Recipe, error) {
	if database == nil {
		return models.Recipe{}, gorm.ErrInvalidDB
	}
	var recipe models.Recipe
	err := database.WithContext(ctx).
		Preload("Ingredients", orderedIngredients).
		Where("owner_id = ?", ownerID).
		First(&recipe, recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, errRecipeNotFound
		}
		return models.Recipe{}, err
	}
	return recipe, nil
}

// loadRecipeBook returns every recipe owned by ownerID, sorted by name.
func loadRecipeBook(ctx context.Context, ownerID uint) ([]models.Recipe, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}
	var recipes []models.Recipe
	if err := database.WithContext(ctx).
		Preload("Ingredients", orderedIngredients).
		Where("owner_id = ?", ownerID).
		Order("name asc, id asc").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// toScalingRecipe converts a stored recipe into the scaling domain. book supplies the base
// servings of referenced sub-recipes.
func toScalingRecipe(recipe models.Recipe, book map[uint]models.Recipe) scaling.Recipe {
	lines := make([]models.RecipeIngredient, len(recipe.Ingredients))
	copy(lines, recipe.Ingredients)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Position < lines[j].Position
	})

	ingredients := make([]scaling.Ingredient, 0, len(lines))
	for _, line := range lines {
		ingredient := scaling.Ingredient{
			Quantity:   line.Quantity,
			Unit:       line.Unit,
			ItemName:   line.ItemName,
			IsOptional: line.IsOptional,
			Notes:      line.Notes,
		}
		if line.SubRecipeID != nil && *line.SubRecipeID != 0 {
			ref := &scaling.SubRecipeRef{ID: *line.SubRecipeID}
			if sub, ok := book[*line.SubRecipeID]; ok {
				ref.BaseServings = sub.BaseServings
			} else if line.SubRecipe != nil {
				ref.BaseServings = line.SubRecipe.BaseServings
			}
			ingredient.SubRecipe = ref
		}
		ingredients = append(ingredients, ingredient)
	}

	return scaling.Recipe{
		ID:              recipe.ID,
		Name:            recipe.Name,
		BaseServings:    recipe.BaseServings,
		Ingredients:     ingredients,
		PrepTimeMinutes: recipe.PrepTimeMinutes,
		CookTimeMinutes: recipe.CookTimeMinutes,
	}
}

func indexRecipeBook(recipes []models.Recipe) map[uint]models.Recipe {
	book := make(map[uint]models.Recipe, len(recipes))
	for _, recipe := range recipes {
		book[recipe.ID] = recipe
	}
	return book
}

// recipeSource adapts the stored recipe book to scaling.Source.
func recipeSource(book map[uint]models.Recipe) scaling.MapSource {
	source := make(scaling.MapSource, len(book))
	for id, recipe := range book {
		source[id] = toScalingRecipe(recipe, book)
	}
	return source
}

// wouldCreateRecipeCycle reports whether pointing recipeID at any of subIDs lets the
// sub-recipe graph reach recipeID again.
func wouldCreateRecipeCycle(recipeID uint, subIDs []uint, book map[uint]models.Recipe) bool {
	if recipeID == 0 {
		return false
	}
	seen := make(map[uint]bool)
	var reaches func(id uint) bool
	reaches = func(id uint) bool {
		if id == recipeID {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		for _, line := range book[id].Ingredients {
			if line.SubRecipeID != nil && reaches(*line.SubRecipeID) {
				return true
			}
		}
		return false
	}
	for _, id := range subIDs {
		if reaches(id) {
			return true
		}
	}
	return false
}

// parseServings reads a servings value from the query string. Only finite values above
// zero are accepted.
func parseServings(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidServings, raw)
	}
	return value, nil
}

// parseExpand reads the expand flag. A missing value means false.
func parseExpand(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %q", errInvalidExpand, raw)
	}
	return value, nil
}

func recipeIDParam(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "recipeID")
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		applog.Debug(r.Context(), "invalid recipe identifier", "identifier", raw)
		return 0, false
	}
	return uint(value), true
}

// writeRecipeError maps recipe errors onto JSON responses.
func writeRecipeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, gorm.ErrInvalidDB):
		writeJSONError(w, http.StatusServiceUnavailable, "recipes are unavailable because no database connection is configured")
	case errors.Is(err, errRecipeNotFound):
		writeJSONError(w, http.StatusNotFound, "recipe not found")
	case errors.Is(err, errInvalidServings):
		writeJSONError(w, http.StatusBadRequest, "servings must be a number greater than zero")
	case errors.Is(err, errInvalidExpand):
		writeJSONError(w, http.StatusBadRequest, "expand must be true or false")
	case errors.Is(err, errUnknownSubRecipe):
		writeJSONError(w, http.StatusBadRequest, "sub-recipe does not exist")
	case errors.Is(err, errSubRecipeCycle), errors.Is(err, scaling.ErrCircularReference):
		writeJSONError(w, http.StatusBadRequest, "sub-recipe would create a circular reference")
	case errors.Is(err, scaling.ErrSubRecipeNotFound):
		writeJSONError(w, http.StatusConflict, "a referenced sub-recipe no longer exists")
	case errors.Is(err, scaling.ErrMaxDepth):
		writeJSONError(w, http.StatusUnprocessableEntity, "sub-recipes are nested too deeply to expand")
	case errors.Is(err, errRecipeInUse):
		writeJSONError(w, http.StatusConflict, "recipe is used as a sub-recipe by another recipe")
	case errors.Is(err, errNoIngredientLines):
		writeJSONError(w, http.StatusBadRequest, "no ingredient lines were found in the upload")
	default:
		applog.Error(r.Context(), "recipe request failed", "action", action, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to "+action)
	}
}
