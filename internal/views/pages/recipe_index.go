package pages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"kitchenops/internal/format"
	"kitchenops/models"
)

// RecipeSummary is a row of the recipe book index.
type RecipeSummary struct {
	ID           uint
	Name         string
	Category     string
	BaseServings string
	TotalTime    string
	Ingredients  int
}

// NewRecipeSummaries sorts recipes by name, ignoring case, and formats their headline values.
func NewRecipeSummaries(recipes []models.Recipe) []RecipeSummary {
	sorted := make([]models.Recipe, len(recipes))
	copy(sorted, recipes)
	sort.SliceStable(sorted, func(i, j int) bool {
		ni, nj := strings.ToLower(sorted[i].Name), strings.ToLower(sorted[j].Name)
		if ni != nj {
			return ni < nj
		}
		return sorted[i].ID < sorted[j].ID
	})

	summaries := make([]RecipeSummary, 0, len(sorted))
	for _, recipe := range sorted {
		summaries = append(summaries, RecipeSummary{
			ID:           recipe.ID,
			Name:         recipe.Name,
			Category:     DefaultDash(recipe.Category),
			BaseServings: format.FormatQuantity(recipe.BaseServings),
			TotalTime:    format.FormatTime(recipe.TotalTimeMinutes()),
			Ingredients:  len(recipe.Ingredients),
		})
	}
	return summaries
}

// DefaultDash substitutes an em dash for blank values.
func DefaultDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func printURL(id uint) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/app/recipes/%d/print", id))
}
