package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"kitchenops/internal/ingredients"
	applog "kitchenops/internal/log"
	"kitchenops/models"
)

const maxRecipeUploadSize = 5 << 20 // 5 MiB

type importResponse struct {
	Recipe       recipeResponse `json:"recipe"`
	SkippedLines []int          `json:"skipped_lines"`
}

// ImportRecipe creates a recipe from pasted text or an uploaded PDF/text file. Every
// non-blank line is read as one ingredient.
func ImportRecipe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if database == nil {
		applog.Debug(r.Context(), "recipe import without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxRecipeUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Error(r.Context(), "failed to parse recipe import form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "upload is too large or invalid")
		return
	}

	rawText := strings.TrimSpace(r.FormValue("recipe_text"))

	fileName, fileBytes, fileType, err := readRecipeUpload(r)
	if err != nil {
		applog.Error(r.Context(), "recipe upload read failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to read the uploaded file")
		return
	}
	if len(fileBytes) > 0 {
		text, convErr := deriveTextFromUpload(fileBytes, fileType)
		if convErr != nil {
			applog.Error(r.Context(), "failed to extract recipe text", "error", convErr, "mime", fileType, "file", fileName)
			writeJSONError(w, http.StatusBadRequest, "the uploaded document could not be read")
			return
		}
		if rawText != "" {
			rawText += "\n"
		}
		rawText += text
	}

	if strings.TrimSpace(rawText) == "" {
		writeJSONError(w, http.StatusBadRequest, "provide recipe_text or upload a recipe_file")
		return
	}

	baseServings := 1.0
	if raw := strings.TrimSpace(r.FormValue("base_servings")); raw != "" {
		if baseServings, err = parseServings(raw); err != nil {
			writeRecipeError(w, r, err, "import recipe")
			return
		}
	}

	lines, skipped := ingredients.ParseText(rawText)
	if len(lines) == 0 {
		writeRecipeError(w, r, errNoIngredientLines, "import recipe")
		return
	}

	name := strings.TrimSpace(r.FormValue("recipe_name"))
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}
	recipe, err := persistImportedRecipe(r.Context(), userID, name, baseServings, lines)
	if err != nil {
		writeRecipeError(w, r, err, "import recipe")
		return
	}

	applog.Debug(r.Context(), "recipe imported", "recipeID", recipe.ID, "lines", len(lines), "skipped", len(skipped))

	if skipped == nil {
		skipped = []int{}
	}
	writeJSON(w, http.StatusCreated, importResponse{
		Recipe:       projectRecipe(recipe),
		SkippedLines: skipped,
	})
}

func readRecipeUpload(r *http.Request) (string, []byte, string, error) {
	file, header, err := r.FormFile("recipe_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil, "", nil
		}
		return "", nil, "", err
	}
	defer file.Close()

	if header.Size > maxRecipeUploadSize {
		return "", nil, "", fmt.Errorf("file exceeds %d bytes", maxRecipeUploadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return "", nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = mimeTypeFromName(header.Filename)
	}

	return header.Filename, buf.Bytes(), mime, nil
}

func deriveTextFromUpload(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	case strings.HasPrefix(lower, "image/"):
		return "", fmt.Errorf("unsupported upload type %q", mime)
	default:
		return string(data), nil
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			for _, word := range row.Content {
				builder.WriteString(word.S)
			}
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

func mimeTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

func persistImportedRecipe(ctx context.Context, userID uint, name string, baseServings float64, lines []ingredients.Line) (models.Recipe, error) {
	recipe := models.Recipe{
		Name:         nextAvailableRecipeName(ctx, userID, name),
		Description:  "Imported recipe",
		BaseServings: baseServings,
		OwnerID:      userID,
	}
	for i, line := range lines {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			Position:   i + 1,
			Quantity:   line.Quantity,
			Unit:       line.Unit,
			ItemName:   line.ItemName,
			IsOptional: line.IsOptional,
			Notes:      line.Notes,
		})
	}

	if err := database.WithContext(ctx).Create(&recipe).Error; err != nil {
		return models.Recipe{}, err
	}
	return loadRecipe(ctx, userID, recipe.ID)
}

// nextAvailableRecipeName appends a counter when the owner already has a recipe by that name.
func nextAvailableRecipeName(ctx context.Context, userID uint, base string) string {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" || trimmed == "." {
		trimmed = "Imported Recipe"
	}

	candidate := trimmed
	for suffix := 2; ; suffix++ {
		var count int64
		if err := database.WithContext(ctx).Model(&models.Recipe{}).
			Where("owner_id = ? AND name = ?", userID, candidate).
			Count(&count).Error; err != nil {
			applog.Error(ctx, "failed to check recipe name availability", "error", err, "candidate", candidate)
			return candidate
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)", trimmed, suffix)
	}
}
