package models

import (
	"gorm.io/gorm"
)

type Recipe struct {
	gorm.Model
	Name            string             `gorm:"not null;index:idx_recipe_owner_name" json:"name"`
	Description     string             `gorm:"type:text" json:"description"`
	Category        string             `json:"category"`
	BaseServings    float64            `gorm:"not null;default:1" json:"base_servings"`
	PrepTimeMinutes int                `gorm:"not null;default:0" json:"prep_time_minutes"`
	CookTimeMinutes int                `gorm:"not null;default:0" json:"cook_time_minutes"`
	Instructions    string             `gorm:"type:text" json:"instructions"`
	OwnerID         uint               `gorm:"not null;index:idx_recipe_owner_name" json:"owner_id"`
	Owner           *User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Ingredients     []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}

// TotalTimeMinutes is prep plus cook time.
func (r Recipe) TotalTimeMinutes() int {
	return r.PrepTimeMinutes + r.CookTimeMinutes
}
