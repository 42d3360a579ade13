package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "kitchenops/internal/log"
	"kitchenops/internal/views/pages"
)

const (
	minPasswordLength = 8
	msgSignupFailed   = "We couldn't create your account right now. Please try again."
)

// signupForm is the registration payload. Venue is the kitchen the chef cooks for.
type signupForm struct {
	Name     string
	Email    string
	Venue    string
	Password string
	Confirm  string
}

func readSignupForm(r *http.Request) signupForm {
	return signupForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Venue:    strings.TrimSpace(r.PostFormValue("venue")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm_password"),
	}
}

// problem returns the first validation message, or "" when the form is acceptable.
func (f signupForm) problem() string {
	switch {
	case f.Email == "" || !strings.Contains(f.Email, "@"):
		return "Please provide a valid email address."
	case len(f.Password) < minPasswordLength:
		return "Password must be at least 8 characters long."
	case f.Password != f.Confirm:
		return "Passwords do not match."
	}
	return ""
}

// Signup displays the account creation form and registers new chefs.
func Signup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderSignup(w, r, "", signupForm{})
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Warn(r.Context(), "registration unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			http.Error(w, "registration not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		form := readSignupForm(r)
		if message := form.problem(); message != "" {
			applog.Debug(r.Context(), "signup rejected", "reason", message)
			renderSignup(w, r, message, form)
			return
		}

		_, err := findUserByEmail(r, form.Email)
		switch {
		case err == nil:
			renderSignup(w, r, "An account with that email already exists.", form)
			return
		case !errors.Is(err, gorm.ErrRecordNotFound):
			applog.Error(r.Context(), "failed to check existing user", "error", err)
			renderSignup(w, r, msgSignupFailed, form)
			return
		}

		user, err := createUser(r, form)
		if err != nil {
			applog.Error(r.Context(), "failed to create user", "error", err)
			renderSignup(w, r, msgSignupFailed, form)
			return
		}

		if err := establishSession(r, user); err != nil {
			applog.Error(r.Context(), "failed to establish session after signup", "error", err)
			renderSignup(w, r, "We couldn't sign you in after creating your account. Please try again.", form)
			return
		}

		applog.Info(r.Context(), "chef registered", "userID", user.ID, "venue", user.Venue)
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func renderSignup(w http.ResponseWriter, r *http.Request, message string, form signupForm) {
	renderView(w, r, "signup",
		pages.Signup(message, form.Name, form.Email, form.Venue),
		pages.SignupPartial(message, form.Name, form.Email, form.Venue),
	)
}
