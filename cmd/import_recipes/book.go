package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"kitchenops/internal/ingredients"
)

// recipeBook is the YAML layout accepted by the importer.
type recipeBook struct {
	Recipes []bookRecipe `yaml:"recipes"`
}

type bookRecipe struct {
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description"`
	Category     string           `yaml:"category"`
	BaseServings float64          `yaml:"base_servings"`
	PrepMinutes  int              `yaml:"prep_minutes"`
	CookMinutes  int              `yaml:"cook_minutes"`
	Instructions string           `yaml:"instructions"`
	Ingredients  []bookIngredient `yaml:"ingredients"`
}

// bookIngredient is either structured or a free-text line such as "1/2 tsp salt".
type bookIngredient struct {
	Line      string  `yaml:"line"`
	Item      string  `yaml:"item"`
	Quantity  float64 `yaml:"quantity"`
	Unit      string  `yaml:"unit"`
	Optional  bool    `yaml:"optional"`
	Notes     string  `yaml:"notes"`
	SubRecipe string  `yaml:"sub_recipe"`
}

var (
	errEmptyBook      = errors.New("recipe book has no recipes")
	errDuplicateName  = errors.New("duplicate recipe name")
	errInvalidRecipe  = errors.New("invalid recipe")
	errBookSubRecipes = errors.New("circular sub-recipe reference")
)

func readBook(path string) (recipeBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recipeBook{}, err
	}
	var book recipeBook
	if err := yaml.Unmarshal(data, &book); err != nil {
		return recipeBook{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := book.normalize(); err != nil {
		return recipeBook{}, err
	}
	return book, nil
}

// normalize trims names, expands free-text lines and validates the book.
func (b *recipeBook) normalize() error {
	if len(b.Recipes) == 0 {
		return errEmptyBook
	}

	seen := make(map[string]bool, len(b.Recipes))
	for i := range b.Recipes {
		recipe := &b.Recipes[i]
		recipe.Name = strings.TrimSpace(recipe.Name)
		if recipe.Name == "" {
			return fmt.Errorf("%w: recipe %d has no name", errInvalidRecipe, i+1)
		}
		key := strings.ToLower(recipe.Name)
		if seen[key] {
			return fmt.Errorf("%w: %q", errDuplicateName, recipe.Name)
		}
		seen[key] = true

		if recipe.BaseServings == 0 {
			recipe.BaseServings = 1
		}
		if recipe.BaseServings < 0 || math.IsNaN(recipe.BaseServings) || math.IsInf(recipe.BaseServings, 0) {
			return fmt.Errorf("%w: %q base_servings must be greater than zero", errInvalidRecipe, recipe.Name)
		}
		if recipe.PrepMinutes < 0 || recipe.CookMinutes < 0 {
			return fmt.Errorf("%w: %q times cannot be negative", errInvalidRecipe, recipe.Name)
		}

		for j := range recipe.Ingredients {
			line := &recipe.Ingredients[j]
			if strings.TrimSpace(line.Line) != "" {
				parsed, err := ingredients.ParseLine(line.Line)
				if err != nil {
					return fmt.Errorf("%w: %q line %d: %v", errInvalidRecipe, recipe.Name, j+1, err)
				}
				line.Item = parsed.ItemName
				line.Quantity = parsed.Quantity
				line.Unit = parsed.Unit
				line.Optional = line.Optional || parsed.IsOptional
				if line.Notes == "" {
					line.Notes = parsed.Notes
				}
			}
			line.Item = strings.TrimSpace(line.Item)
			line.SubRecipe = strings.TrimSpace(line.SubRecipe)
			if line.Item == "" {
				line.Item = line.SubRecipe
			}
			if line.Item == "" {
				return fmt.Errorf("%w: %q line %d has no item", errInvalidRecipe, recipe.Name, j+1)
			}
			if line.Quantity < 0 || math.IsNaN(line.Quantity) || math.IsInf(line.Quantity, 0) {
				return fmt.Errorf("%w: %q line %d quantity cannot be negative", errInvalidRecipe, recipe.Name, j+1)
			}
		}
	}

	return b.checkCycles()
}

// checkCycles rejects books whose sub_recipe references loop back on themselves.
func (b *recipeBook) checkCycles() error {
	edges := make(map[string][]string, len(b.Recipes))
	for _, recipe := range b.Recipes {
		key := strings.ToLower(recipe.Name)
		for _, line := range recipe.Ingredients {
			if line.SubRecipe != "" {
				edges[key] = append(edges[key], strings.ToLower(line.SubRecipe))
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(edges))
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: %q", errBookSubRecipes, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, next := range edges[name] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, recipe := range b.Recipes {
		if err := visit(strings.ToLower(recipe.Name)); err != nil {
			return err
		}
	}
	return nil
}
