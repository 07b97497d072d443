package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/database"
	"github.com/mbolis/quick-event/form"
	"github.com/mbolis/quick-event/httpx"
	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/metrics"
	"github.com/mbolis/quick-event/model"
)

func insertFields(ctx context.Context, tx *sql.Tx, eventId int64, fields form.Fields) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO event_field (
			event_id, field_id, position, system_name, label, field_type,
			required, editable, deletable, is_fixed, options)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range fields {
		var optionsJson []byte
		if f.Options != nil {
			optionsJson, err = json.Marshal(f.Options)
			if err != nil {
				return err
			}
		}
		_, err = stmt.ExecContext(ctx,
			eventId, f.ID, i, f.SystemName, f.Label, f.FieldType,
			f.Required, f.Editable, f.Deletable, f.IsFixed, string(optionsJson),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func loadFields(ctx context.Context, q database.Querier, eventId int64) (form.Fields, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			f.field_id, f.position, f.system_name, f.label, f.field_type,
			f.required, f.editable, f.deletable, f.is_fixed, f.options
		FROM event_field f
		WHERE f.event_id = ?
		ORDER BY f.position`,
		eventId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := form.Fields{}
	for rows.Next() {
		f := model.Field{}
		var opts string
		err = rows.Scan(
			&f.ID, &f.Position, &f.SystemName, &f.Label, &f.FieldType,
			&f.Required, &f.Editable, &f.Deletable, &f.IsFixed, &opts,
		)
		if err != nil {
			return nil, err
		}

		if opts != "" {
			err = json.Unmarshal([]byte(opts), &f.Options)
			if err != nil {
				return nil, err
			}
		}

		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func GetFormConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		exists, err := eventExists(r.Context(), app, eventId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form_config.event", err)
			return
		}
		if !exists {
			httpx.LogNotFound(w, r, "get_form_config", eventId)
			return
		}

		fields, err := loadFields(r.Context(), app, eventId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form_config", err)
			return
		}

		render.JSON(w, r, form.Split(fields))
	}
}

// SaveFormConfig replaces every field of the event with the posted ones.
func SaveFormConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventId, err := urlID(r)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		cfg := model.SaveFormConfig{}
		err = render.DecodeJSON(r.Body, &cfg)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err = form.Validate(cfg.Fields); err != nil {
			httpx.LogRejection(w, r, "save_form_config.validate", "Invalid form configuration.", map[string][]string{
				"fields": {err.Error()},
			})
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		exists, err := eventExists(r.Context(), tx, eventId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.save_form_config.event", err)
			return
		}
		if !exists {
			httpx.LogNotFound(w, r, "save_form_config", eventId)
			return
		}

		// delete all fields
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM event_field
			WHERE event_id = ?`,
			eventId,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.save_form_config.delete_fields", err)
			return
		}

		// recreate all fields
		err = insertFields(r.Context(), tx, eventId, cfg.Fields)
		if err != nil {
			httpx.LogInternalError(w, r, "db.save_form_config.insert_fields", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.save_form_config.commit", err)
			return
		}
		metrics.FormConfigSaves.Inc()

		w.WriteHeader(http.StatusNoContent)
	}
}

// publishedEvent finds a published event by id or slug.
func publishedEvent(ctx context.Context, q database.Querier, ref string) (e model.Event, err error) {
	query := `
		SELECT e.id, e.version, e.title, e.slug, e.description, e.published
		FROM event e
		WHERE e.published`
	var arg any = ref
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		query += " AND e.id = ?"
		arg = id
	} else {
		query += " AND e.slug = ?"
	}

	err = q.QueryRowContext(ctx, query, arg).
		Scan(&e.ID, &e.Version, &e.Title, &e.Slug, &e.Description, &e.Published)
	return
}

func PublicGetFormConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "ref")

		event, err := publishedEvent(r.Context(), app, ref)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "get_public_form_config", ref)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_public_form_config.event", err)
			return
		}

		fields, err := loadFields(r.Context(), app, event.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_public_form_config", err)
			return
		}

		render.JSON(w, r, model.PublicFormConfig{
			EventID: event.ID,
			Title:   event.Title,
			Fields:  fields,
		})
	}
}
