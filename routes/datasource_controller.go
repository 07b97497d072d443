package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/datasource"
	"github.com/mbolis/quick-event/httpx"
	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/model"
)

// redact hides the OAuth tokens of data sources sent back to clients.
func redact(list ...model.DataSource) []model.DataSource {
	out := make([]model.DataSource, len(list))
	for i, ds := range list {
		ds.Config.AccessToken = ""
		ds.Config.RefreshToken = ""
		out[i] = ds
	}
	return out
}

func CreateDataSource(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := model.DataSource{}
		err := render.DecodeJSON(r.Body, &ds)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if errs := datasource.Validate(ds); errs != nil {
			httpx.LogRejection(w, r, "create_data_source.validate", "Invalid data source.", errs)
			return
		}

		exists, err := eventExists(r.Context(), app, ds.EventID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_data_source.event", err)
			return
		}
		if !exists {
			httpx.LogNotFound(w, r, "create_data_source.event", ds.EventID)
			return
		}

		ds, err = app.DataSources.Create(r.Context(), ds)
		if errors.Is(err, datasource.ErrDuplicate) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "db.create_data_source", "%s", err)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_data_source", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, redact(ds)[0])
	}
}

func ListDataSources(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := app.DataSources.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_data_sources", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"data_sources": redact(list...),
		})
	}
}

func ListEventDataSources(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		list, err := app.DataSources.ListByEvent(r.Context(), eventId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_event_data_sources", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"data_sources": redact(list...),
		})
	}
}

func SyncDataSource(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dsId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.DataSources.Sync(r.Context(), dsId)
		if errors.Is(err, datasource.ErrNotFound) {
			httpx.LogNotFound(w, r, "sync_data_source", dsId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "sync_data_source", err)
			return
		}

		render.JSON(w, r, res)
	}
}
