package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kitchenops/internal/config"
	"kitchenops/models"
)

const pestoBook = `
recipes:
  - name: Trofie al Pesto
    base_servings: 4
    prep_minutes: 15
    cook_minutes: 12
    ingredients:
      - item: trofie
        quantity: 400
        unit: g
      - quantity: 2
        unit: serving
        sub_recipe: Basil Pesto
  - name: Basil Pesto
    category: Sauces
    base_servings: 2
    prep_minutes: 10
    ingredients:
      - line: "50 g basil"
      - line: "1/2 cup olive oil"
      - line: "pine nuts (optional)"
`

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:import-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := database.AutoMigrate(&models.User{}, &models.Recipe{}, &models.RecipeIngredient{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}

func createOwner(t *testing.T, database *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", Name: "Chef"}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func writeBook(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write book: %v", err)
	}
	return path
}

func TestReadBookParsesFreeTextLines(t *testing.T) {
	book, err := readBook(writeBook(t, pestoBook))
	if err != nil {
		t.Fatalf("readBook returned error: %v", err)
	}
	if len(book.Recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(book.Recipes))
	}

	pesto := book.Recipes[1]
	if pesto.Ingredients[0].Item != "basil" || pesto.Ingredients[0].Quantity != 50 || pesto.Ingredients[0].Unit != "g" {
		t.Fatalf("unexpected basil line: %+v", pesto.Ingredients[0])
	}
	if pesto.Ingredients[1].Quantity != 0.5 {
		t.Fatalf("expected fractional quantity 0.5, got %v", pesto.Ingredients[1].Quantity)
	}
	if !pesto.Ingredients[2].Optional {
		t.Fatalf("expected pine nuts to be optional: %+v", pesto.Ingredients[2])
	}

	sub := book.Recipes[0].Ingredients[1]
	if sub.Item != "Basil Pesto" {
		t.Fatalf("expected sub-recipe line to borrow the recipe name, got %q", sub.Item)
	}
}

func TestReadBookRejectsInvalidBooks(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"empty": {body: "recipes: []\n", want: errEmptyBook},
		"duplicate": {
			body: "recipes:\n  - name: Soup\n  - name: soup\n",
			want: errDuplicateName,
		},
		"negative servings": {
			body: "recipes:\n  - name: Soup\n    base_servings: -2\n",
			want: errInvalidRecipe,
		},
		"cycle": {
			body: `recipes:
  - name: A
    ingredients:
      - sub_recipe: B
  - name: B
    ingredients:
      - sub_recipe: A
`,
			want: errBookSubRecipes,
		},
		"self reference": {
			body: "recipes:\n  - name: A\n    ingredients:\n      - sub_recipe: a\n",
			want: errBookSubRecipes,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readBook(writeBook(t, tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestImportBookCreatesRecipesAndLinksSubRecipes(t *testing.T) {
	database := openTestDatabase(t)
	owner := createOwner(t, database, "chef@example.com")

	book, err := readBook(writeBook(t, pestoBook))
	if err != nil {
		t.Fatalf("readBook returned error: %v", err)
	}

	summary, err := importBook(context.Background(), database, owner.ID, book)
	if err != nil {
		t.Fatalf("importBook returned error: %v", err)
	}
	if summary.Created != 2 || summary.Updated != 0 || summary.Lines != 5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var pesto, trofie models.Recipe
	if err := database.Where("name = ?", "Basil Pesto").First(&pesto).Error; err != nil {
		t.Fatalf("failed to load pesto: %v", err)
	}
	if err := database.Preload("Ingredients").Where("name = ?", "Trofie al Pesto").First(&trofie).Error; err != nil {
		t.Fatalf("failed to load trofie: %v", err)
	}
	if trofie.OwnerID != owner.ID || trofie.BaseServings != 4 {
		t.Fatalf("unexpected trofie row: %+v", trofie)
	}

	var linked *models.RecipeIngredient
	for i := range trofie.Ingredients {
		if trofie.Ingredients[i].SubRecipeID != nil {
			linked = &trofie.Ingredients[i]
		}
	}
	if linked == nil || *linked.SubRecipeID != pesto.ID {
		t.Fatalf("expected trofie to reference pesto %d, got %+v", pesto.ID, trofie.Ingredients)
	}
}

func TestImportBookUpsertsByName(t *testing.T) {
	database := openTestDatabase(t)
	owner := createOwner(t, database, "chef@example.com")

	first, err := readBook(writeBook(t, pestoBook))
	if err != nil {
		t.Fatalf("readBook returned error: %v", err)
	}
	if _, err := importBook(context.Background(), database, owner.ID, first); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second, err := readBook(writeBook(t, "recipes:\n  - name: basil pesto\n    base_servings: 3\n    ingredients:\n      - line: \"60 g basil\"\n"))
	if err != nil {
		t.Fatalf("readBook returned error: %v", err)
	}
	summary, err := importBook(context.Background(), database, owner.ID, second)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if summary.Created != 0 || summary.Updated != 1 {
		t.Fatalf("expected a single update, got %+v", summary)
	}

	var recipes []models.Recipe
	if err := database.Preload("Ingredients").Where("lower(name) = ?", "basil pesto").Find(&recipes).Error; err != nil {
		t.Fatalf("failed to load pesto: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("expected one pesto row, got %d", len(recipes))
	}
	if recipes[0].BaseServings != 3 || len(recipes[0].Ingredients) != 1 || recipes[0].Ingredients[0].Quantity != 60 {
		t.Fatalf("expected pesto to be replaced, got %+v", recipes[0])
	}
}

func TestImportBookResolvesStoredSubRecipes(t *testing.T) {
	database := openTestDatabase(t)
	owner := createOwner(t, database, "chef@example.com")
	stock := models.Recipe{Name: "Chicken Stock", BaseServings: 4, OwnerID: owner.ID}
	if err := database.Create(&stock).Error; err != nil {
		t.Fatalf("failed to create stock: %v", err)
	}

	book, err := readBook(writeBook(t, "recipes:\n  - name: Risotto\n    ingredients:\n      - quantity: 1\n        unit: l\n        sub_recipe: chicken stock\n"))
	if err != nil {
		t.Fatalf("readBook returned error: %v", err)
	}
	if _, err := importBook(context.Background(), database, owner.ID, book); err != nil {
		t.Fatalf("importBook returned error: %v", err)
	}

	var line models.RecipeIngredient
	if err := database.Where("item_name = ?", "chicken stock").First(&line).Error; err != nil {
		t.Fatalf("failed to load line: %v", err)
	}
	if line.SubRecipeID == nil || *line.SubRecipeID != stock.ID {
		t.Fatalf("expected stored stock to be linked, got %+v", line)
	}
}

func TestImportBookRejectsCycleThroughStoredRecipe(t *testing.T) {
	database := openTestDatabase(t)
	owner := createOwner(t, database, "chef@example.com")

	first, err := readBook(writeBook(t, `recipes:
  - name: Sauce
    ingredients:
      - quantity: 1
        sub_recipe: Stock
  - name: Stock
    ingredients:
      - line: "2 l water"
`))
	if err != nil {
		t.Fatalf("readBook returned error: %v", err)
	}
	if _, err := importBook(context.Background(), database, owner.ID, first); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second, err := readBook(writeBook(t, "recipes:\n  - name: Stock\n    ingredients:\n      - quantity: 1\n        sub_recipe: Sauce\n"))
	if err != nil {
		t.Fatalf("the second book is valid on its own, got %v", err)
	}
	_, err = importBook(context.Background(), database, owner.ID, second)
	if !errors.Is(err, errBookSubRecipes) {
		t.Fatalf("expected errBookSubRecipes, got %v", err)
	}

	var stock models.Recipe
	if err := database.Preload("Ingredients").Where("name = ?", "Stock").First(&stock).Error; err != nil {
		t.Fatalf("failed to load stock: %v", err)
	}
	if len(stock.Ingredients) != 1 || stock.Ingredients[0].SubRecipeID != nil || stock.Ingredients[0].ItemName != "water" {
		t.Fatalf("expected stock to keep its stored lines after rollback, got %+v", stock.Ingredients)
	}
}

func TestImportBookRollsBackOnUnknownSubRecipe(t *testing.T) {
	database := openTestDatabase(t)
	owner := createOwner(t, database, "chef@example.com")

	book, err := readBook(writeBook(t, "recipes:\n  - name: Risotto\n    ingredients:\n      - sub_recipe: Veal Jus\n"))
	if err != nil {
		t.Fatalf("readBook returned error: %v", err)
	}
	_, err = importBook(context.Background(), database, owner.ID, book)
	if !errors.Is(err, errUnknownSubRecipe) {
		t.Fatalf("expected errUnknownSubRecipe, got %v", err)
	}

	var count int64
	database.Model(&models.Recipe{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected transaction rollback, found %d recipes", count)
	}
}

func TestResolveOwner(t *testing.T) {
	database := openTestDatabase(t)
	first := createOwner(t, database, "first@example.com")
	second := createOwner(t, database, "second@example.com")

	id, err := resolveOwner(context.Background(), database, "")
	if err != nil || id != first.ID {
		t.Fatalf("expected default owner %d, got %d (%v)", first.ID, id, err)
	}
	id, err = resolveOwner(context.Background(), database, " Second@Example.com ")
	if err != nil || id != second.ID {
		t.Fatalf("expected owner %d by email, got %d (%v)", second.ID, id, err)
	}
	if _, err := resolveOwner(context.Background(), database, "nobody@example.com"); err == nil {
		t.Fatal("expected error for unknown owner")
	}
}

func TestRootCommandImportsBook(t *testing.T) {
	database := openTestDatabase(t)
	createOwner(t, database, "chef@example.com")

	originalLoad, originalOpen := loadConfigFunc, openDatabase
	t.Cleanup(func() {
		loadConfigFunc, openDatabase = originalLoad, originalOpen
		ownerEmail, dryRun = "", false
	})
	loadConfigFunc = func() (config.Config, error) { return config.Config{}, nil }
	openDatabase = func(config.DatabaseConfig) (*gorm.DB, error) { return database, nil }

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--owner", "chef@example.com", writeBook(t, pestoBook)})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out.String(), "Imported 2 recipes (2 new, 0 updated, 5 ingredient lines)") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRootCommandDryRunSkipsDatabase(t *testing.T) {
	originalOpen := openDatabase
	t.Cleanup(func() {
		openDatabase = originalOpen
		ownerEmail, dryRun = "", false
	})
	openDatabase = func(config.DatabaseConfig) (*gorm.DB, error) {
		t.Fatal("database should not be opened during a dry run")
		return nil, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dry-run", writeBook(t, pestoBook)})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Validated 2 recipes" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRootCommandRequiresBookPath(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when no book path is given")
	}
}
