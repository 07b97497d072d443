package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/mbolis/quick-event/model"
)

var ErrAlreadyRegistered = errors.New("email already registered for this event")

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// InsertAttendee stores a new attendee, assigning id, ticket code and
// registration time.
func InsertAttendee(ctx context.Context, q Querier, a *model.Attendee) error {
	customJson, err := json.Marshal(a.CustomData)
	if err != nil {
		return err
	}
	if a.TicketCode == "" {
		a.TicketCode = uuid.NewString()
	}
	if a.RegisteredAt.IsZero() {
		a.RegisteredAt = time.Now().UTC()
	}

	err = q.QueryRowContext(ctx, `
		INSERT INTO attendee (
			event_id, first_name, last_name, email, phone,
			company, position, ticket_type, notes,
			ticket_code, source, custom_data, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.EventID, a.FirstName, a.LastName, a.Email, a.Phone,
		a.Company, a.Position, a.TicketType, a.Notes,
		a.TicketCode, a.Source, string(customJson), a.RegisteredAt,
	).Scan(&a.ID)
	if IsUniqueViolation(err) {
		return ErrAlreadyRegistered
	}
	return err
}

// UpsertAttendee inserts a, or refreshes the attendee already registered
// with the same email for the event. Empty properties of a never blank out
// stored ones; its custom data is merged over the stored answers.
func UpsertAttendee(ctx context.Context, q Querier, a *model.Attendee) (created bool, err error) {
	err = q.QueryRowContext(ctx, `
		SELECT id, ticket_code FROM attendee
		WHERE event_id = ? AND email = ?`,
		a.EventID, a.Email,
	).Scan(&a.ID, &a.TicketCode)
	if errors.Is(err, sql.ErrNoRows) {
		return true, InsertAttendee(ctx, q, a)
	}
	if err != nil {
		return false, err
	}

	customJson := []byte("{}")
	if len(a.CustomData) > 0 {
		if customJson, err = json.Marshal(a.CustomData); err != nil {
			return false, err
		}
	}

	_, err = q.ExecContext(ctx, `
		UPDATE attendee SET
			first_name  = COALESCE(NULLIF(?, ''), first_name),
			last_name   = COALESCE(NULLIF(?, ''), last_name),
			phone       = COALESCE(NULLIF(?, ''), phone),
			company     = COALESCE(NULLIF(?, ''), company),
			position    = COALESCE(NULLIF(?, ''), position),
			ticket_type = COALESCE(NULLIF(?, ''), ticket_type),
			notes       = COALESCE(NULLIF(?, ''), notes),
			custom_data = json_patch(COALESCE(custom_data, '{}'), ?)
		WHERE id = ?`,
		a.FirstName, a.LastName, a.Phone, a.Company, a.Position, a.TicketType, a.Notes,
		string(customJson), a.ID,
	)
	return false, err
}

func ListAttendees(ctx context.Context, q Querier, eventID int64) ([]model.Attendee, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			id, event_id, first_name, last_name, email, phone,
			company, position, ticket_type, notes,
			ticket_code, source, custom_data, registered_at
		FROM attendee
		WHERE event_id = ?
		ORDER BY registered_at, id`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []model.Attendee{}
	for rows.Next() {
		a := model.Attendee{}
		var custom string
		err = rows.Scan(
			&a.ID, &a.EventID, &a.FirstName, &a.LastName, &a.Email, &a.Phone,
			&a.Company, &a.Position, &a.TicketType, &a.Notes,
			&a.TicketCode, &a.Source, &custom, &a.RegisteredAt,
		)
		if err != nil {
			return nil, err
		}
		if custom != "" && custom != "null" {
			if err = json.Unmarshal([]byte(custom), &a.CustomData); err != nil {
				return nil, err
			}
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
