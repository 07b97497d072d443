package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/metrics"
	"github.com/mbolis/quick-event/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get(`/events/{ref}/public-form-config`, PublicGetFormConfig(app))
	api.Post("/register", Register(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD event
		r.Post("/events", CreateEvent(app))
		r.Get("/events", ListEvents(app))
		r.Get(`/events/{id:^\d+$}`, GetEventById(app))
		r.Put(`/events/{id:^\d+$}`, UpdateEvent(app))
		r.Delete(`/events/{id:^\d+$}`, DeleteEvent(app))

		r.Get(`/events/{id:^\d+$}/form-config`, GetFormConfig(app))
		r.Post(`/events/{id:^\d+$}/form-config`, SaveFormConfig(app))
		r.Get(`/events/{id:^\d+$}/attendees`, GetAttendees(app))

		r.Post("/data-sources", CreateDataSource(app))
		r.Get("/data-sources", ListDataSources(app))
		r.Get(`/events/{id:^\d+$}/data-sources`, ListEventDataSources(app))
		r.Post(`/data-sources/{id:^\d+$}/sync`, SyncDataSource(app))

		r.Get("/integrations/google/auth-url", GoogleAuthURL(app))
		r.Post("/integrations/google/token", GoogleToken(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))
	api.Handle("/metrics", metrics.Handler())

	return api
}
