package models

import (
	"gorm.io/gorm"
)

type RecipeIngredient struct {
	gorm.Model
	RecipeID   uint    `gorm:"not null;index" json:"recipe_id"` // Parent Recipe
	Position   int     `gorm:"not null;default:0" json:"position"`
	Quantity   float64 `gorm:"not null" json:"quantity"`
	Unit       string  `json:"unit"`
	ItemName   string  `gorm:"not null" json:"item_name"`
	IsOptional bool    `gorm:"not null;default:false" json:"is_optional"`
	Notes      string  `gorm:"type:text" json:"notes"`

	// Set when this line is another recipe; Quantity is then the servings of it required.
	SubRecipeID *uint   `json:"sub_recipe_id,omitempty"`
	SubRecipe   *Recipe `gorm:"foreignKey:SubRecipeID" json:"sub_recipe,omitempty"`
}
