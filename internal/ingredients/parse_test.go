package ingredients

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Line
	}{
		{"grams", "200 g flour", Line{Quantity: 200, Unit: "g", ItemName: "flour"}},
		{"glued unit", "200g flour", Line{Quantity: 200, Unit: "g", ItemName: "flour"}},
		{"fraction", "1/2 tsp salt", Line{Quantity: 0.5, Unit: "tsp", ItemName: "salt"}},
		{"mixed number", "1 1/2 cups milk", Line{Quantity: 1.5, Unit: "cup", ItemName: "milk"}},
		{"unicode fraction", "½ tsp salt", Line{Quantity: 0.5, Unit: "tsp", ItemName: "salt"}},
		{"no unit", "2 eggs", Line{Quantity: 2, ItemName: "eggs"}},
		{"decimal comma", "1,5 kg potatoes", Line{Quantity: 1.5, Unit: "kg", ItemName: "potatoes"}},
		{"optional", "50 ml cream (optional)", Line{Quantity: 50, Unit: "ml", ItemName: "cream", IsOptional: true}},
		{"trailing note", "salt, to taste", Line{ItemName: "salt", Notes: "to taste"}},
		{"bullet and of", "- 1 can of chopped tomatoes", Line{Quantity: 1, Unit: "can", ItemName: "chopped tomatoes"}},
		{"numbered list", "3. 4 cloves garlic (crushed)", Line{Quantity: 4, Unit: "clove", ItemName: "garlic", Notes: "crushed"}},
		{"unit abbreviation dot", "2 tbsp. olive oil", Line{Quantity: 2, Unit: "tbsp", ItemName: "olive oil"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLine(tt.in)
			if err != nil {
				t.Fatalf("ParseLine(%q) returned error: %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Fatalf("ParseLine(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	t.Parallel()

	if _, err := ParseLine("   "); !errors.Is(err, ErrEmptyLine) {
		t.Fatalf("expected ErrEmptyLine, got %v", err)
	}
	if _, err := ParseLine("250"); !errors.Is(err, ErrNoItem) {
		t.Fatalf("expected ErrNoItem, got %v", err)
	}
}

func TestParseTextSkipsHeadersAndReportsFailures(t *testing.T) {
	t.Parallel()

	text := "Ingredients:\r\n200 g flour\n\n3 eggs\n42\n⅓ cup sugar\n"
	lines, skipped := ParseText(text)

	if len(lines) != 3 {
		t.Fatalf("expected 3 parsed lines, got %d: %+v", len(lines), lines)
	}
	if lines[1].ItemName != "eggs" || lines[1].Quantity != 3 {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
	if math.Abs(lines[2].Quantity-1.0/3) > 1e-9 {
		t.Fatalf("unexpected unicode fraction quantity: %v", lines[2].Quantity)
	}
	if diff := cmp.Diff([]int{4}, skipped); diff != "" {
		t.Fatalf("unexpected skipped indexes (-want +got):\n%s", diff)
	}
}
