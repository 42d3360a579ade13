package handlers

import (
	"errors"
	"net/http"
	"strings"

	applog "kitchenops/internal/log"
	"kitchenops/internal/views/pages"
)

const (
	msgCredentialsRequired = "Email and password are required."
	msgSignInRequired      = "Please sign in to continue."
	msgInvalidCredentials  = "Invalid email or password. Please try again."
	msgSignInFailed        = "We were unable to sign you in. Please try again."
)

// Login renders the sign-in form and processes sign-in submissions.
func Login(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		message := ""
		if sessionManager != nil {
			message = sessionManager.PopString(r.Context(), sessionLoginMessageKey)
		}
		renderLogin(w, r, message, "")
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Warn(r.Context(), "sign-in unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.PostFormValue("email"))
		password := r.PostFormValue("password")
		if email == "" || password == "" {
			renderLogin(w, r, msgCredentialsRequired, email)
			return
		}

		user, err := authenticate(r, email, password)
		if err == nil {
			err = establishSession(r, user)
		}
		if err != nil {
			message := msgSignInFailed
			if errors.Is(err, errInvalidCredentials) {
				message = msgInvalidCredentials
			} else {
				applog.Error(r.Context(), "sign-in failed", "error", err)
			}
			renderLogin(w, r, message, email)
			return
		}

		applog.Info(r.Context(), "chef signed in", "email", strings.ToLower(email))
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func renderLogin(w http.ResponseWriter, r *http.Request, message, email string) {
	renderView(w, r, "login", pages.Login(message, email), pages.LoginPartial(message, email))
}
