package handlers

import (
	"net/http"
	"strings"

	applog "kitchenops/internal/log"
)

type profileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Venue string `json:"venue"`
}

// UpdateProfile persists the display name and venue of the authenticated user.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		applog.Debug(r.Context(), "profile update with unsupported method", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := loadCurrentUser(r)
	if err != nil {
		applog.Error(r.Context(), "unable to load current user for profile", "error", err)
		http.Error(w, "unable to load account", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse profile form", "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	venue := strings.TrimSpace(r.FormValue("venue"))
	if name == "" {
		name = user.Name
	}

	applog.Debug(r.Context(), "updating user profile", "userID", user.ID)
	updates := map[string]any{"name": name, "venue": venue}
	if err := database.WithContext(r.Context()).Model(user).Updates(updates).Error; err != nil {
		applog.Error(r.Context(), "failed to persist user profile", "error", err)
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}

	if sessionManager != nil {
		sessionManager.Put(r.Context(), sessionUserNameKey, name)
	}

	writeJSON(w, http.StatusOK, profileResponse{Name: name, Email: user.Email, Venue: venue})
}
