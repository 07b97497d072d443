package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-event/app"
	"github.com/mbolis/quick-event/database"
	"github.com/mbolis/quick-event/form"
	"github.com/mbolis/quick-event/httpx"
	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/metrics"
	"github.com/mbolis/quick-event/model"
	"github.com/mbolis/quick-event/registration"
)

const sourceForm = "form"

// answered tells whether a custom data value holds an answer.
func answered(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.RegistrationRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		if err = app.Validate.Struct(req); err != nil {
			errs, ok := fieldErrors(err)
			if !ok {
				httpx.LogInternalError(w, r, "register.validate", err)
				return
			}
			httpx.LogRejection(w, r, "register.validate", "Please check the highlighted fields.", errs)
			return
		}

		event, err := publishedEvent(r.Context(), app, strconv.FormatInt(req.EventID, 10))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "register.event", req.EventID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.register.event", err)
			return
		}

		fields, err := loadFields(r.Context(), app, event.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.register.fields", err)
			return
		}

		a := model.Attendee{
			EventID:    event.ID,
			FirstName:  strings.TrimSpace(req.FirstName),
			LastName:   strings.TrimSpace(req.LastName),
			Email:      req.Email,
			Phone:      strings.TrimSpace(req.Phone),
			Source:     sourceForm,
			CustomData: req.CustomData,
		}

		// required answers, either top level or in custom data
		errs := map[string][]string{}
		keys := registration.DataKeys(fields)
		for _, f := range fields {
			key, ok := keys[f.ID]
			if !ok {
				continue
			}
			value := req.CustomData[key]

			var top *string
			switch f.SystemName {
			case form.SysFirstName:
				top = &a.FirstName
			case form.SysLastName:
				top = &a.LastName
			case form.SysEmail:
				top = &a.Email
			case form.SysPhone:
				top = &a.Phone
			case "company":
				top = &a.Company
			case "jobTitle":
				top = &a.Position
			}
			if top != nil && *top == "" {
				if s, isText := value.(string); isText {
					*top = strings.TrimSpace(s)
				}
			}

			if !f.Required || (top != nil && *top != "") || answered(value) {
				continue
			}
			errs[key] = append(errs[key], f.Label+" is required.")
		}
		if len(errs) > 0 {
			httpx.LogRejection(w, r, "register.required", "Please fill in all required fields.", errs)
			return
		}

		err = database.InsertAttendee(r.Context(), app, &a)
		if errors.Is(err, database.ErrAlreadyRegistered) {
			httpx.LogRejection(w, r, "register.duplicate", "This email is already registered for this event.", map[string][]string{
				"email": {"This email is already registered for this event."},
			})
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.register.insert", err)
			return
		}
		metrics.Registrations.WithLabelValues(sourceForm).Inc()

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, model.Registration{Attendee: a})
	}
}
