package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-event/model"
)

// Admin returns a middleware checking for the 'admin' role in an OAuth token
// signed with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		if !slices.Contains(strings.Split(claims["roles"], ","), "admin") {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, model.ErrorBody{Message: http.StatusText(http.StatusForbidden)})
			return
		}

		next.ServeHTTP(w, r)
	})
}
