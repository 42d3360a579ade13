package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"kitchenops/internal/handlers"
	applog "kitchenops/internal/log"
)

func newRouter(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Boosted", "X-CSRF-Token"},
			ExposedHeaders:   []string{"HX-Redirect"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		applog.Debug(context.Background(), "cors enabled", "origins", allowedOrigins)
	}

	applog.Debug(context.Background(), "registering http routes")
	r.Get("/healthz", handlers.Health)
	r.HandleFunc("/login", handlers.Login)
	r.HandleFunc("/signup", handlers.Signup)
	r.HandleFunc("/logout", handlers.Logout)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/app", http.StatusSeeOther)
	})

	r.Route("/app", func(r chi.Router) {
		r.Use(handlers.RequireAuthentication)
		r.Get("/", handlers.Dashboard)
		r.Post("/profile", handlers.UpdateProfile)
		r.Get("/recipes/{recipeID}/print", handlers.PrintRecipe)

		r.Route("/api/recipes", func(r chi.Router) {
			r.HandleFunc("/", handlers.Recipes)
			r.Post("/import", handlers.ImportRecipe)
			r.HandleFunc("/{recipeID}", handlers.Recipe)
			r.Get("/{recipeID}/scale", handlers.ScaleRecipe)
		})
	})
	applog.Debug(context.Background(), "routes registered", "protectedPrefix", "/app")

	return r
}
