package handlers

import (
	"net/http"

	applog "kitchenops/internal/log"
	"kitchenops/internal/views/pages"
)

// Dashboard renders the signed-in user's recipe book.
func Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		redirectToLogin(w, r)
		return
	}

	recipes, err := loadRecipeBook(r.Context(), userID)
	if err != nil {
		applog.Error(r.Context(), "failed to load recipe book", "error", err, "userID", userID)
		http.Error(w, "We were unable to load your recipes. Please try again.", http.StatusInternalServerError)
		return
	}

	userName := ""
	if sessionManager != nil {
		userName = sessionManager.GetString(r.Context(), sessionUserNameKey)
	}
	summaries := pages.NewRecipeSummaries(recipes)

	renderView(w, r, "recipe-index", pages.RecipeIndex(userName, summaries), pages.RecipeIndexPartial(userName, summaries))
}
