package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "kitchenops/internal/log"
	"kitchenops/internal/scaling"
	"kitchenops/internal/views/pages"
)

// PrintRecipe renders a printable recipe sheet scaled to the requested servings.
func PrintRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		redirectToLogin(w, r)
		return
	}

	recipeID, ok := recipeIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, err := buildPrintableRecipe(r, userID, recipeID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrInvalidDB):
			http.Error(w, "Printing is unavailable because no database connection is configured.", http.StatusServiceUnavailable)
		case errors.Is(err, errRecipeNotFound):
			http.Error(w, "The selected recipe no longer exists.", http.StatusNotFound)
		case errors.Is(err, errInvalidServings):
			http.Error(w, "Provide a number of servings greater than zero.", http.StatusBadRequest)
		case errors.Is(err, scaling.ErrCircularReference):
			http.Error(w, "The recipe's sub-recipes refer back to it and cannot be printed.", http.StatusBadRequest)
		case errors.Is(err, scaling.ErrSubRecipeNotFound):
			http.Error(w, "A sub-recipe used by this recipe no longer exists.", http.StatusConflict)
		case errors.Is(err, scaling.ErrMaxDepth):
			http.Error(w, "Sub-recipes are nested too deeply to print.", http.StatusUnprocessableEntity)
		default:
			applog.Error(r.Context(), "failed to build recipe document", "error", err, "recipeID", recipeID)
			http.Error(w, "We were unable to prepare the recipe for printing. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.RecipeDocument(data).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render recipe document", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func buildPrintableRecipe(r *http.Request, userID, recipeID uint) (pages.RecipeDocumentData, error) {
	recipes, err := loadRecipeBook(r.Context(), userID)
	if err != nil {
		return pages.RecipeDocumentData{}, err
	}
	book := indexRecipeBook(recipes)
	stored, ok := book[recipeID]
	if !ok {
		return pages.RecipeDocumentData{}, errRecipeNotFound
	}

	target := stored.BaseServings
	if raw := r.URL.Query().Get("servings"); strings.TrimSpace(raw) != "" {
		if target, err = parseServings(raw); err != nil {
			return pages.RecipeDocumentData{}, err
		}
	}

	input := pages.RecipeDocumentInput{
		Recipe:       toScalingRecipe(stored, book),
		Description:  stored.Description,
		Category:     stored.Category,
		Instructions: stored.Instructions,
		SubRecipes:   recipeSource(book),
		MaxDepth:     maxExpansion,
	}
	applog.Debug(r.Context(), "building recipe document", "recipeID", recipeID, "target", target)
	return pages.BuildRecipeDocument(input, target)
}
