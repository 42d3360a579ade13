package mock

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "kitchenops/internal/log"
	"kitchenops/models"
)

// DemoPassword is the password of the seeded demo account.
const DemoPassword = "mise-en-place"

// New returns an in-memory sqlite database seeded with a small kitchen recipe book.
func New(ctx context.Context) (*gorm.DB, error) {
	return open(ctx, "file:kitchenops-mock?mode=memory&cache=shared")
}

func open(ctx context.Context, dsn string) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.RecipeIngredient{},
	); err != nil {
		return nil, err
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return nil, err
	}
	if users == 0 {
		if err := seed(ctx, db); err != nil {
			return nil, err
		}
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Robin Brigade",
		Email:        "chef@kitchenops.app",
		PasswordHash: string(password),
		Venue:        "Harbour Street Kitchen",
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	pesto := models.Recipe{
		Name:            "Basil Pesto",
		Description:     "House pesto, blitzed to order.",
		Category:        "Sauce",
		BaseServings:    2,
		PrepTimeMinutes: 10,
		OwnerID:         user.ID,
		Ingredients: []models.RecipeIngredient{
			{Position: 1, Quantity: 50, Unit: "g", ItemName: "basil"},
			{Position: 2, Quantity: 30, Unit: "g", ItemName: "pine nuts", Notes: "toasted"},
			{Position: 3, Quantity: 40, Unit: "g", ItemName: "parmesan"},
			{Position: 4, Quantity: 120, Unit: "ml", ItemName: "olive oil"},
			{Position: 5, Quantity: 1, Unit: "clove", ItemName: "garlic", IsOptional: true},
		},
	}
	if err := db.WithContext(ctx).Create(&pesto).Error; err != nil {
		return err
	}

	focaccia := models.Recipe{
		Name:            "Rosemary Focaccia",
		Description:     "Overnight dough, baked in half sheet trays.",
		Category:        "Bakery",
		BaseServings:    4,
		PrepTimeMinutes: 45,
		CookTimeMinutes: 25,
		OwnerID:         user.ID,
		Ingredients: []models.RecipeIngredient{
			{Position: 1, Quantity: 500, Unit: "g", ItemName: "bread flour"},
			{Position: 2, Quantity: 400, Unit: "ml", ItemName: "water", Notes: "lukewarm"},
			{Position: 3, Quantity: 7, Unit: "g", ItemName: "dried yeast"},
			{Position: 4, Quantity: 10, Unit: "g", ItemName: "salt"},
			{Position: 5, Quantity: 2, Unit: "tbsp", ItemName: "rosemary", Notes: "picked"},
		},
	}
	if err := db.WithContext(ctx).Create(&focaccia).Error; err != nil {
		return err
	}

	pasta := models.Recipe{
		Name:            "Trofie al Pesto",
		Description:     "Fresh trofie, green beans and potato tossed in pesto.",
		Category:        "Main",
		BaseServings:    4,
		PrepTimeMinutes: 20,
		CookTimeMinutes: 15,
		OwnerID:         user.ID,
		Ingredients: []models.RecipeIngredient{
			{Position: 1, Quantity: 400, Unit: "g", ItemName: "trofie"},
			{Position: 2, Quantity: 150, Unit: "g", ItemName: "green beans"},
			{Position: 3, Quantity: 200, Unit: "g", ItemName: "waxy potatoes"},
			{Position: 4, Quantity: 2, Unit: "serving", ItemName: pesto.Name, SubRecipeID: &pesto.ID},
		},
	}
	if err := db.WithContext(ctx).Create(&pasta).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded", "recipes", 3)
	return nil
}
