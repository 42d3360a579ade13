package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"kitchenops/internal/format"
	applog "kitchenops/internal/log"
	"kitchenops/models"
)

type recipeIngredientRequest struct {
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	ItemName    string  `json:"item_name"`
	IsOptional  bool    `json:"is_optional"`
	Notes       string  `json:"notes"`
	SubRecipeID *uint   `json:"sub_recipe_id"`
}

type recipeRequest struct {
	Name            string                    `json:"name"`
	Description     string                    `json:"description"`
	Category        string                    `json:"category"`
	BaseServings    float64                   `json:"base_servings"`
	PrepTimeMinutes int                       `json:"prep_time_minutes"`
	CookTimeMinutes int                       `json:"cook_time_minutes"`
	Instructions    string                    `json:"instructions"`
	Ingredients     []recipeIngredientRequest `json:"ingredients"`
}

type recipeIngredientResponse struct {
	ID              uint    `json:"id"`
	Position        int     `json:"position"`
	Quantity        float64 `json:"quantity"`
	DisplayQuantity string  `json:"display_quantity"`
	Unit            string  `json:"unit"`
	ItemName        string  `json:"item_name"`
	IsOptional      bool    `json:"is_optional"`
	Notes           string  `json:"notes"`
	SubRecipeID     *uint   `json:"sub_recipe_id,omitempty"`
}

type recipeResponse struct {
	ID               uint                       `json:"id"`
	Name             string                     `json:"name"`
	Description      string                     `json:"description"`
	Category         string                     `json:"category"`
	BaseServings     float64                    `json:"base_servings"`
	PrepTimeMinutes  int                        `json:"prep_time_minutes"`
	CookTimeMinutes  int                        `json:"cook_time_minutes"`
	TotalTimeMinutes int                        `json:"total_time_minutes"`
	TotalTime        string                     `json:"total_time"`
	Instructions     string                     `json:"instructions"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// Recipes lists and creates recipes belonging to the signed-in user.
func Recipes(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "recipe request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "recipe request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		listRecipes(w, r, userID)
	case http.MethodPost:
		createRecipe(w, r, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Recipe shows, replaces or deletes a single recipe.
func Recipe(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "recipe request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "recipe request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	recipeID, ok := recipeIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, userID, recipeID)
	case http.MethodPut:
		updateRecipe(w, r, userID, recipeID)
	case http.MethodDelete:
		deleteRecipe(w, r, userID, recipeID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listRecipes(w http.ResponseWriter, r *http.Request, userID uint) {
	recipes, err := loadRecipeBook(r.Context(), userID)
	if err != nil {
		writeRecipeError(w, r, err, "load recipes")
		return
	}

	responses := make([]recipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, projectRecipe(recipe))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showRecipe(w http.ResponseWriter, r *http.Request, userID, recipeID uint) {
	recipe, err := loadRecipe(r.Context(), userID, recipeID)
	if err != nil {
		writeRecipeError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(recipe))
}

func createRecipe(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var payload recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid recipe create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateRecipePayload(payload); err != nil {
		applog.Debug(ctx, "recipe validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines, err := resolveRecipeLines(ctx, userID, 0, payload.Ingredients)
	if err != nil {
		writeRecipeError(w, r, err, "create recipe")
		return
	}

	recipe := models.Recipe{
		Name:            strings.TrimSpace(payload.Name),
		Description:     strings.TrimSpace(payload.Description),
		Category:        strings.TrimSpace(payload.Category),
		BaseServings:    payload.BaseServings,
		PrepTimeMinutes: payload.PrepTimeMinutes,
		CookTimeMinutes: payload.CookTimeMinutes,
		Instructions:    strings.TrimSpace(payload.Instructions),
		OwnerID:         userID,
		Ingredients:     lines,
	}

	if err := database.WithContext(ctx).Create(&recipe).Error; err != nil {
		applog.Error(ctx, "failed to create recipe", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create recipe")
		return
	}

	applog.Debug(ctx, "recipe created", "recipeID", recipe.ID, "lines", len(lines))

	created, err := loadRecipe(ctx, userID, recipe.ID)
	if err != nil {
		writeRecipeError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, http.StatusCreated, projectRecipe(created))
}

func updateRecipe(w http.ResponseWriter, r *http.Request, userID, recipeID uint) {
	ctx := r.Context()
	existing, err := loadRecipe(ctx, userID, recipeID)
	if err != nil {
		writeRecipeError(w, r, err, "load recipe")
		return
	}

	var payload recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid recipe update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := validateRecipePayload(payload); err != nil {
		applog.Debug(ctx, "recipe update validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines, err := resolveRecipeLines(ctx, userID, recipeID, payload.Ingredients)
	if err != nil {
		writeRecipeError(w, r, err, "update recipe")
		return
	}

	updates := map[string]any{
		"name":              strings.TrimSpace(payload.Name),
		"description":       strings.TrimSpace(payload.Description),
		"category":          strings.TrimSpace(payload.Category),
		"base_servings":     payload.BaseServings,
		"prep_time_minutes": payload.PrepTimeMinutes,
		"cook_time_minutes": payload.CookTimeMinutes,
		"instructions":      strings.TrimSpace(payload.Instructions),
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipeID
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to update recipe", "error", err, "recipeID", recipeID)
		writeJSONError(w, http.StatusBadRequest, "unable to update recipe")
		return
	}

	updated, err := loadRecipe(ctx, userID, recipeID)
	if err != nil {
		writeRecipeError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, http.StatusOK, projectRecipe(updated))
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, userID, recipeID uint) {
	ctx := r.Context()
	if _, err := loadRecipe(ctx, userID, recipeID); err != nil {
		writeRecipeError(w, r, err, "load recipe")
		return
	}

	var dependants int64
	if err := database.WithContext(ctx).
		Model(&models.RecipeIngredient{}).
		Where("sub_recipe_id = ? AND recipe_id <> ?", recipeID, recipeID).
		Count(&dependants).Error; err != nil {
		writeRecipeError(w, r, err, "delete recipe")
		return
	}
	if dependants > 0 {
		applog.Debug(ctx, "refusing to delete recipe in use", "recipeID", recipeID, "dependants", dependants)
		writeRecipeError(w, r, errRecipeInUse, "delete recipe")
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, recipeID).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete recipe", "error", err, "recipeID", recipeID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateRecipePayload(payload recipeRequest) error {
	if strings.TrimSpace(payload.Name) == "" {
		return errors.New("name is required")
	}
	if !finite(payload.BaseServings) || payload.BaseServings <= 0 {
		return errors.New("base_servings must be greater than zero")
	}
	if payload.PrepTimeMinutes < 0 || payload.CookTimeMinutes < 0 {
		return errors.New("prep and cook times cannot be negative")
	}
	for _, line := range payload.Ingredients {
		if !finite(line.Quantity) || line.Quantity < 0 {
			return errors.New("ingredient quantity cannot be negative")
		}
		hasSub := line.SubRecipeID != nil && *line.SubRecipeID != 0
		if strings.TrimSpace(line.ItemName) == "" && !hasSub {
			return errors.New("ingredient item_name is required")
		}
	}
	return nil
}

// resolveRecipeLines checks sub-recipe references against the owner's recipe book and
// builds the ingredient rows in submission order.
func resolveRecipeLines(ctx context.Context, userID, recipeID uint, payload []recipeIngredientRequest) ([]models.RecipeIngredient, error) {
	var subIDs []uint
	for _, line := range payload {
		if line.SubRecipeID != nil && *line.SubRecipeID != 0 {
			subIDs = append(subIDs, *line.SubRecipeID)
		}
	}

	var book map[uint]models.Recipe
	if len(subIDs) > 0 {
		recipes, err := loadRecipeBook(ctx, userID)
		if err != nil {
			return nil, err
		}
		book = indexRecipeBook(recipes)
		for _, id := range subIDs {
			if _, ok := book[id]; !ok {
				return nil, errUnknownSubRecipe
			}
		}
		if wouldCreateRecipeCycle(recipeID, subIDs, book) {
			return nil, errSubRecipeCycle
		}
	}

	lines := make([]models.RecipeIngredient, 0, len(payload))
	for i, line := range payload {
		row := models.RecipeIngredient{
			RecipeID:   recipeID,
			Position:   i + 1,
			Quantity:   line.Quantity,
			Unit:       strings.TrimSpace(line.Unit),
			ItemName:   strings.TrimSpace(line.ItemName),
			IsOptional: line.IsOptional,
			Notes:      strings.TrimSpace(line.Notes),
		}
		if line.SubRecipeID != nil && *line.SubRecipeID != 0 {
			id := *line.SubRecipeID
			row.SubRecipeID = &id
			if row.ItemName == "" {
				row.ItemName = book[id].Name
			}
		}
		lines = append(lines, row)
	}
	return lines, nil
}

func projectRecipe(recipe models.Recipe) recipeResponse {
	ingredients := make([]recipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		ingredients = append(ingredients, recipeIngredientResponse{
			ID:              line.ID,
			Position:        line.Position,
			Quantity:        line.Quantity,
			DisplayQuantity: format.FormatQuantity(line.Quantity),
			Unit:            line.Unit,
			ItemName:        line.ItemName,
			IsOptional:      line.IsOptional,
			Notes:           line.Notes,
			SubRecipeID:     line.SubRecipeID,
		})
	}

	return recipeResponse{
		ID:               recipe.ID,
		Name:             recipe.Name,
		Description:      recipe.Description,
		Category:         recipe.Category,
		BaseServings:     recipe.BaseServings,
		PrepTimeMinutes:  recipe.PrepTimeMinutes,
		CookTimeMinutes:  recipe.CookTimeMinutes,
		TotalTimeMinutes: recipe.TotalTimeMinutes(),
		TotalTime:        format.FormatTime(recipe.TotalTimeMinutes()),
		Instructions:     recipe.Instructions,
		Ingredients:      ingredients,
		CreatedAt:        recipe.CreatedAt,
		UpdatedAt:        recipe.UpdatedAt,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
