package scaling

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCalculateScaleFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		original float64
		target   float64
		want     float64
	}{
		{"identity", 4, 4, 1},
		{"double", 4, 8, 2},
		{"half", 4, 2, 0.5},
		{"one and a half", 4, 6, 1.5},
		{"zero base", 0, 10, 1},
		{"negative base", -5, 10, 1},
		{"zero target", 4, 0, 0},
		{"negative target passes through", 4, -2, -0.5},
		{"nan base", math.NaN(), 3, 1},
		{"infinite target", 2, math.Inf(1), 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CalculateScaleFactor(tt.original, tt.target); got != tt.want {
				t.Fatalf("CalculateScaleFactor(%v, %v) = %v, want %v", tt.original, tt.target, got, tt.want)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{2.256, 2.26},
		{2.254, 2.25},
		{300, 300},
		{0.125, 0.13},
		{0, 0},
		{-2.255, -2.25},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScaleIngredientsIdentity(t *testing.T) {
	t.Parallel()

	ingredients := []Ingredient{
		{Quantity: 200, Unit: "g", ItemName: "flour"},
		{Quantity: 1.25, Unit: "tsp", ItemName: "salt", Notes: "fine"},
		{Quantity: 3, Unit: "pcs", ItemName: "eggs", IsOptional: true},
	}

	for _, servings := range []float64{1, 2.5, 4, 12} {
		got := ScaleIngredients(ingredients, servings, servings)
		if diff := cmp.Diff(ingredients, got); diff != "" {
			t.Fatalf("identity scaling at %v servings changed ingredients (-want +got):\n%s", servings, diff)
		}
	}
}

func TestScaleIngredientsFlourScenario(t *testing.T) {
	t.Parallel()

	got := ScaleIngredients([]Ingredient{{Quantity: 200, Unit: "g", ItemName: "flour"}}, 4, 6)
	want := []Ingredient{{Quantity: 300, Unit: "g", ItemName: "flour"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected scaled ingredients (-want +got):\n%s", diff)
	}
}

func TestScaleIngredientsPreservesOrderAndFields(t *testing.T) {
	t.Parallel()

	sub := &SubRecipeRef{ID: 9, BaseServings: 2}
	ingredients := []Ingredient{
		{Quantity: 10, Unit: "ml", ItemName: "stock", Notes: "hot"},
		{Quantity: 1, Unit: "batch", ItemName: "pesto", SubRecipe: sub},
		{Quantity: 0.33, Unit: "kg", ItemName: "potatoes", IsOptional: true},
	}

	got := ScaleIngredients(ingredients, 3, 7)
	if len(got) != len(ingredients) {
		t.Fatalf("expected %d ingredients, got %d", len(ingredients), len(got))
	}

	for i := range ingredients {
		want := ingredients[i]
		want.Quantity = Round2(ingredients[i].Quantity * CalculateScaleFactor(3, 7))
		if diff := cmp.Diff(want, got[i]); diff != "" {
			t.Fatalf("ingredient %d mismatch (-want +got):\n%s", i, diff)
		}
	}

	if got[1].SubRecipe == sub {
		t.Fatal("expected scaled ingredient to hold its own sub-recipe reference")
	}
	if ingredients[0].Quantity != 10 {
		t.Fatalf("input mutated: %v", ingredients[0].Quantity)
	}
}

func TestScaleIngredientsLinearity(t *testing.T) {
	t.Parallel()

	quantities := []float64{0, 0.1, 1, 7.77, 200, 1234.5}
	pairs := [][2]float64{{4, 6}, {3, 1}, {2.5, 10}, {8, 3}}

	for _, pair := range pairs {
		base, target := pair[0], pair[1]
		for _, q := range quantities {
			got := ScaleIngredients([]Ingredient{{Quantity: q}}, base, target)[0].Quantity
			want := Round2(q * (target / base))
			if got != want {
				t.Fatalf("scale %v from %v to %v = %v, want %v", q, base, target, got, want)
			}
		}
	}
}

func TestScaleIngredientsIsRepeatable(t *testing.T) {
	t.Parallel()

	base := []Ingredient{{Quantity: 33.33, Unit: "g"}, {Quantity: 1, Unit: "pcs"}}
	first := ScaleIngredients(base, 3, 7)
	second := ScaleIngredients(base, 3, 7)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated scaling drifted (-first +second):\n%s", diff)
	}
}

func TestScaleIngredientsZeroBaseIsUnscaled(t *testing.T) {
	t.Parallel()

	ingredients := []Ingredient{{Quantity: 12.5, Unit: "g"}}
	for _, base := range []float64{0, -5} {
		got := ScaleIngredients(ingredients, base, 20)
		if got[0].Quantity != 12.5 {
			t.Fatalf("base %v: expected unscaled quantity, got %v", base, got[0].Quantity)
		}
	}
}

func TestScaleIngredientsEmpty(t *testing.T) {
	t.Parallel()

	got := ScaleIngredients(nil, 2, 4)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestScaleRecipe(t *testing.T) {
	t.Parallel()

	recipe := Recipe{
		BaseServings: 4,
		Ingredients:  []Ingredient{{Quantity: 200, Unit: "g", ItemName: "flour"}},
	}
	result := Scale(recipe, 2)
	if result.ScaleFactor != 0.5 {
		t.Fatalf("ScaleFactor = %v, want 0.5", result.ScaleFactor)
	}
	if result.Ingredients[0].Quantity != 100 {
		t.Fatalf("Quantity = %v, want 100", result.Ingredients[0].Quantity)
	}
	if recipe.Ingredients[0].Quantity != 200 {
		t.Fatal("recipe ingredients must not be mutated")
	}
}

func TestSubRecipeScale(t *testing.T) {
	t.Parallel()

	if got := CalculateSubRecipeScale(1, 2); got != 0.5 {
		t.Fatalf("CalculateSubRecipeScale(1, 2) = %v, want 0.5", got)
	}
	if got := CalculateSubRecipeScale(3, 0); got != 1 {
		t.Fatalf("CalculateSubRecipeScale(3, 0) = %v, want 1", got)
	}

	sub := []Ingredient{
		{Quantity: 50, Unit: "g", ItemName: "basil"},
		{Quantity: 0.3, Unit: "l", ItemName: "olive oil"},
	}
	got := ExpandSubRecipeIngredients(sub, 1, 2)
	want := []Ingredient{
		{Quantity: 25, Unit: "g", ItemName: "basil"},
		{Quantity: 0.15, Unit: "l", ItemName: "olive oil"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected expansion (-want +got):\n%s", diff)
	}

	topLevel := ScaleIngredients(sub, 2, 1)
	if diff := cmp.Diff(topLevel, got); diff != "" {
		t.Fatalf("sub-recipe expansion must match top-level scaling (-top +sub):\n%s", diff)
	}
}
