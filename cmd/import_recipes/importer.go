package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	applog "kitchenops/internal/log"
	"kitchenops/models"
)

type importSummary struct {
	Created int
	Updated int
	Lines   int
}

var errUnknownSubRecipe = errors.New("unknown sub-recipe")

// importBook upserts every recipe of the book by name for ownerID inside one transaction.
// Recipe rows are written first so sub-recipe references can resolve to any recipe in the
// book regardless of order.
func importBook(ctx context.Context, database *gorm.DB, ownerID uint, book recipeBook) (importSummary, error) {
	var summary importSummary

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint, len(book.Recipes))

		for _, entry := range book.Recipes {
			var existing models.Recipe
			err := tx.Where("owner_id = ? AND lower(name) = ?", ownerID, strings.ToLower(entry.Name)).First(&existing).Error
			switch {
			case err == nil:
				updates := map[string]any{
					"name":              entry.Name,
					"description":       strings.TrimSpace(entry.Description),
					"category":          strings.TrimSpace(entry.Category),
					"base_servings":     entry.BaseServings,
					"prep_time_minutes": entry.PrepMinutes,
					"cook_time_minutes": entry.CookMinutes,
					"instructions":      strings.TrimSpace(entry.Instructions),
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return fmt.Errorf("update recipe %q: %w", entry.Name, err)
				}
				ids[strings.ToLower(entry.Name)] = existing.ID
				summary.Updated++
			case errors.Is(err, gorm.ErrRecordNotFound):
				recipe := models.Recipe{
					Name:            entry.Name,
					Description:     strings.TrimSpace(entry.Description),
					Category:        strings.TrimSpace(entry.Category),
					BaseServings:    entry.BaseServings,
					PrepTimeMinutes: entry.PrepMinutes,
					CookTimeMinutes: entry.CookMinutes,
					Instructions:    strings.TrimSpace(entry.Instructions),
					OwnerID:         ownerID,
				}
				if err := tx.Create(&recipe).Error; err != nil {
					return fmt.Errorf("create recipe %q: %w", entry.Name, err)
				}
				ids[strings.ToLower(entry.Name)] = recipe.ID
				summary.Created++
			default:
				return fmt.Errorf("find recipe %q: %w", entry.Name, err)
			}
		}

		for _, entry := range book.Recipes {
			recipeID := ids[strings.ToLower(entry.Name)]
			if err := tx.Unscoped().Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return fmt.Errorf("clear ingredients of %q: %w", entry.Name, err)
			}

			rows := make([]models.RecipeIngredient, 0, len(entry.Ingredients))
			for i, line := range entry.Ingredients {
				row := models.RecipeIngredient{
					RecipeID:   recipeID,
					Position:   i + 1,
					Quantity:   line.Quantity,
					Unit:       strings.TrimSpace(line.Unit),
					ItemName:   line.Item,
					IsOptional: line.Optional,
					Notes:      strings.TrimSpace(line.Notes),
				}
				if line.SubRecipe != "" {
					subID, err := resolveSubRecipe(tx, ownerID, ids, line.SubRecipe)
					if err != nil {
						return fmt.Errorf("recipe %q line %d: %w", entry.Name, i+1, err)
					}
					row.SubRecipeID = &subID
				}
				rows = append(rows, row)
			}
			if len(rows) == 0 {
				continue
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("create ingredients of %q: %w", entry.Name, err)
			}
			summary.Lines += len(rows)
		}
		return checkStoredCycles(tx, ownerID, book, ids)
	})
	if err != nil {
		return importSummary{}, err
	}

	applog.Debug(ctx, "recipe book imported", "created", summary.Created, "updated", summary.Updated, "lines", summary.Lines)
	return summary, nil
}

// resolveSubRecipe looks the name up in the book first, then among the owner's stored recipes.
func resolveSubRecipe(tx *gorm.DB, ownerID uint, ids map[string]uint, name string) (uint, error) {
	if id, ok := ids[strings.ToLower(name)]; ok {
		return id, nil
	}
	var stored models.Recipe
	err := tx.Where("owner_id = ? AND lower(name) = ?", ownerID, strings.ToLower(name)).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %q", errUnknownSubRecipe, name)
	}
	if err != nil {
		return 0, err
	}
	return stored.ID, nil
}

// checkStoredCycles walks the owner's whole sub-recipe graph, stored recipes included,
// and fails when an imported recipe can reach itself.
func checkStoredCycles(tx *gorm.DB, ownerID uint, book recipeBook, ids map[string]uint) error {
	var stored []models.Recipe
	if err := tx.Preload("Ingredients").Where("owner_id = ?", ownerID).Find(&stored).Error; err != nil {
		return fmt.Errorf("load recipe graph: %w", err)
	}
	edges := make(map[uint][]uint, len(stored))
	for _, recipe := range stored {
		for _, line := range recipe.Ingredients {
			if line.SubRecipeID != nil {
				edges[recipe.ID] = append(edges[recipe.ID], *line.SubRecipeID)
			}
		}
	}

	for _, entry := range book.Recipes {
		start := ids[strings.ToLower(entry.Name)]
		seen := make(map[uint]bool)
		var reaches func(id uint) bool
		reaches = func(id uint) bool {
			if id == start {
				return true
			}
			if seen[id] {
				return false
			}
			seen[id] = true
			for _, next := range edges[id] {
				if reaches(next) {
					return true
				}
			}
			return false
		}
		for _, next := range edges[start] {
			if reaches(next) {
				return fmt.Errorf("%w: %q through stored recipes", errBookSubRecipes, entry.Name)
			}
		}
	}
	return nil
}

// resolveOwner finds the importing user by email, or the first user when email is blank.
func resolveOwner(ctx context.Context, database *gorm.DB, email string) (uint, error) {
	var user models.User
	query := database.WithContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := query.Where("lower(email) = ?", email).First(&user).Error; err != nil {
			return 0, fmt.Errorf("find owner by email %q: %w", email, err)
		}
		return user.ID, nil
	}
	if err := query.Order("id asc").First(&user).Error; err != nil {
		return 0, fmt.Errorf("find default owner: %w", err)
	}
	return user.ID, nil
}
