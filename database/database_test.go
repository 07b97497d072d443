package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-event/config"
	"github.com/mbolis/quick-event/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(config.Config{
		DBUrl:         filepath.Join(t.TempDir(), "test.sqlite"),
		AdminUser:     "admin",
		AdminPassword: "secret",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedEvent(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`INSERT INTO event (title, slug) VALUES ('Gala', 'gala') RETURNING id`).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestOpen_MigratesAndSeedsAdmin(t *testing.T) {
	db := openTestDB(t)

	var hash []byte
	require.NoError(t, db.QueryRow("SELECT password_hash FROM user WHERE username = 'admin'").Scan(&hash))
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("secret")))

	// idempotent
	require.NoError(t, EnsureUser(db, "admin", "other"))
	require.NoError(t, db.QueryRow("SELECT password_hash FROM user WHERE username = 'admin'").Scan(&hash))
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("secret")))
}

func TestOpen_ReopenIsNoChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := Open(config.Config{DBUrl: path})
	require.NoError(t, err)
	db.Close()

	db, err = Open(config.Config{DBUrl: path})
	require.NoError(t, err)
	db.Close()
}

func TestInsertAttendee_Duplicate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	eventID := seedEvent(t, db)

	a := model.Attendee{EventID: eventID, Email: "a@b.com", Source: "form", CustomData: map[string]any{"Size": "M"}}
	require.NoError(t, InsertAttendee(ctx, db, &a))
	assert.NotZero(t, a.ID)
	assert.NotEmpty(t, a.TicketCode)

	dup := model.Attendee{EventID: eventID, Email: "a@b.com", Source: "form"}
	assert.ErrorIs(t, InsertAttendee(ctx, db, &dup), ErrAlreadyRegistered)

	list, err := ListAttendees(ctx, db, eventID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "M", list[0].CustomData["Size"])
	assert.Equal(t, a.TicketCode, list[0].TicketCode)
}

func TestUpsertAttendee(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	eventID := seedEvent(t, db)

	a := model.Attendee{EventID: eventID, Email: "a@b.com", FirstName: "Ada", Company: "AE", Source: "google_forms"}
	created, err := UpsertAttendee(ctx, db, &a)
	require.NoError(t, err)
	assert.True(t, created)

	b := model.Attendee{EventID: eventID, Email: "a@b.com", LastName: "Lovelace", Source: "google_forms"}
	created, err = UpsertAttendee(ctx, db, &b)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, b.ID)

	list, err := ListAttendees(ctx, db, eventID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ada", list[0].FirstName)
	assert.Equal(t, "Lovelace", list[0].LastName)
	assert.Equal(t, "AE", list[0].Company)
}

func TestUpsertAttendee_RefreshesCustomData(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	eventID := seedEvent(t, db)

	a := model.Attendee{EventID: eventID, Email: "a@b.com", Source: "google_forms",
		CustomData: map[string]any{"Diet": "Vegan", "T-shirt": "M"}}
	_, err := UpsertAttendee(ctx, db, &a)
	require.NoError(t, err)

	b := model.Attendee{EventID: eventID, Email: "a@b.com", Source: "google_forms",
		CustomData: map[string]any{"T-shirt": "L", "Workshop": "Go"}}
	_, err = UpsertAttendee(ctx, db, &b)
	require.NoError(t, err)

	c := model.Attendee{EventID: eventID, Email: "a@b.com", Source: "google_forms"}
	_, err = UpsertAttendee(ctx, db, &c)
	require.NoError(t, err)

	list, err := ListAttendees(ctx, db, eventID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{"Diet": "Vegan", "T-shirt": "L", "Workshop": "Go"}, list[0].CustomData)
}
