package handlers

import (
	"net/http"

	"github.com/a-h/templ"

	applog "kitchenops/internal/log"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || r.Header.Get("HX-Boosted") == "true"
}

// renderView writes partial for HTMX swaps and full otherwise.
func renderView(w http.ResponseWriter, r *http.Request, view string, full, partial templ.Component) {
	component := full
	swap := isHTMX(r)
	if swap {
		component = partial
	}
	applog.Debug(r.Context(), "rendering view", "view", view, "partial", swap)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render view", "view", view, "error", err)
		http.Error(w, "We were unable to render this page.", http.StatusInternalServerError)
	}
}
