package routes

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/database"
	"github.com/mbolis/quick-event/form"
	"github.com/mbolis/quick-event/httpx"
	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/model"
)

var reNoSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	return strings.Trim(reNoSlug.ReplaceAllLiteralString(strings.ToLower(title), "-"), "-")
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// fieldErrors turns validator failures into the error body convention.
func fieldErrors(err error) (map[string][]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	errs := map[string][]string{}
	for _, fe := range verrs {
		msg := "is invalid"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be a valid email address"
		case "max":
			msg = "must be at most " + fe.Param() + " characters"
		}
		errs[fe.Field()] = append(errs[fe.Field()], msg)
	}
	return errs, true
}

func eventExists(ctx context.Context, q database.Querier, eventId int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, "SELECT 1 FROM event WHERE id = ?", eventId).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return exists, err
}

func CreateEvent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event := model.Event{}
		err := render.DecodeJSON(r.Body, &event)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if event.Slug == "" {
			event.Slug = slugify(event.Title)
		}
		if err = app.Validate.Struct(event); err != nil {
			errs, _ := fieldErrors(err)
			httpx.LogRejection(w, r, "create_event.validate", "Invalid event.", errs)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var eventId int64
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO event (title, slug, description, published) VALUES (?, ?, ?, ?)
			RETURNING id`,
			event.Title,
			event.Slug,
			event.Description,
			event.Published,
		).Scan(&eventId)
		if database.IsUniqueViolation(err) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "db.insert_event.slug", "slug %q already in use", event.Slug)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_event", err)
			return
		}

		// every event starts with the mandatory fields
		err = insertFields(r.Context(), tx, eventId, form.DefaultFields())
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_event.fields", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_event.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": eventId,
		})
	}
}

func ListEvents(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT e.id, e.version, e.title, e.slug, e.description, e.published
			FROM event e
			ORDER BY e.id`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_events", err)
			return
		}
		defer rows.Close()

		events := []model.Event{}
		for rows.Next() {
			e := model.Event{}
			err = rows.Scan(&e.ID, &e.Version, &e.Title, &e.Slug, &e.Description, &e.Published)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_events.scan", err)
				return
			}

			events = append(events, e)
		}

		render.JSON(w, r, map[string]any{
			"events": events,
		})
	}
}

func GetEventById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		e := model.Event{}
		err = app.QueryRowContext(r.Context(), `
			SELECT e.id, e.version, e.title, e.slug, e.description, e.published
			FROM event e
			WHERE e.id = ?`,
			eventId,
		).Scan(&e.ID, &e.Version, &e.Title, &e.Slug, &e.Description, &e.Published)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "get_event", eventId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_event", err)
			return
		}

		render.JSON(w, r, e)
	}
}

func UpdateEvent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		event := model.Event{}
		err = render.DecodeJSON(r.Body, &event)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if event.Slug == "" {
			event.Slug = slugify(event.Title)
		}
		if err = app.Validate.Struct(event); err != nil {
			errs, _ := fieldErrors(err)
			httpx.LogRejection(w, r, "update_event.validate", "Invalid event.", errs)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE event
			SET
				title = ?,
				slug = ?,
				description = ?,
				published = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			event.Title,
			event.Slug,
			event.Description,
			event.Published,
			eventId,
			event.Version,
		)
		if database.IsUniqueViolation(err) {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "db.update_event.slug", "slug %q already in use", event.Slug)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_event", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_event.verify", err)
			return
		}
		if n < 1 {
			exists, err := eventExists(r.Context(), app, eventId)
			if err != nil {
				httpx.LogInternalError(w, r, "db.update_event.verify", err)
				return
			}
			if !exists {
				httpx.LogNotFound(w, r, "update_event", eventId)
				return
			}
			httpx.LogStatus(w, r, http.StatusConflict, log.DebugLevel, "db.update_event.verify.conflict")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteEvent(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		// fields, attendees and data sources go with the event
		res, err := app.ExecContext(r.Context(), "DELETE FROM event WHERE id = ?", eventId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_event", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_event.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, r, "delete_event", eventId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetAttendees(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		exists, err := eventExists(r.Context(), app, eventId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_attendees.event", err)
			return
		}
		if !exists {
			httpx.LogNotFound(w, r, "get_attendees", eventId)
			return
		}

		attendees, err := database.ListAttendees(r.Context(), app, eventId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_attendees", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"attendees": attendees,
		})
	}
}
