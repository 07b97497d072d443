package model

import "time"

type Event struct {
	ID          int64  `json:"id,omitempty"`
	Version     int    `json:"version,omitempty"`
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=100"`
	Description string `json:"description" validate:"max=5000"`
	Published   bool   `json:"published"`
}

// FormConfig is the editor view of an event's fields, split the way the
// backend stores them. Position restores the combined order.
type FormConfig struct {
	StandardFields []Field `json:"standard_fields"`
	CustomFields   []Field `json:"custom_fields"`
}

type SaveFormConfig struct {
	Fields []Field `json:"fields"`
}

type PublicFormConfig struct {
	EventID int64   `json:"event_id"`
	Title   string  `json:"title,omitempty"`
	Fields  []Field `json:"fields"`
}

type RegistrationRequest struct {
	EventID    int64          `json:"event_id" validate:"required,gt=0"`
	FirstName  string         `json:"first_name" validate:"max=200"`
	LastName   string         `json:"last_name" validate:"max=200"`
	Email      string         `json:"email" validate:"required,email"`
	Phone      string         `json:"phone,omitempty" validate:"max=50"`
	CustomData map[string]any `json:"custom_data"`
}

type Attendee struct {
	ID           int64          `json:"id"`
	EventID      int64          `json:"event_id"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	Company      string         `json:"company,omitempty"`
	Position     string         `json:"position,omitempty"`
	TicketType   string         `json:"ticket_type,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	TicketCode   string         `json:"ticket_code"`
	Source       string         `json:"source"`
	CustomData   map[string]any `json:"custom_data,omitempty"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// Registration is the confirmation returned for a successful sign-up.
type Registration struct {
	Attendee Attendee `json:"attendee"`
}

type SyncMethod string

const (
	SyncManual    SyncMethod = "manual"
	SyncScheduled SyncMethod = "scheduled"
	SyncRealtime  SyncMethod = "realtime"
)

func (m SyncMethod) Valid() bool {
	return m == SyncManual || m == SyncScheduled || m == SyncRealtime
}

const DataSourceGoogleForms = "google_forms"

// DataSourceConfig holds the OAuth tokens and external form of a source.
type DataSourceConfig struct {
	FormID       string    `json:"form_id"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenExpiry  time.Time `json:"token_expiry,omitempty"`
}

type DataSource struct {
	ID           int64             `json:"id,omitempty"`
	EventID      int64             `json:"event_id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	Config       DataSourceConfig  `json:"config"`
	FieldMapping map[string]string `json:"field_mapping"`
	SyncMethod   SyncMethod        `json:"sync_method"`
	SyncSchedule string            `json:"sync_schedule,omitempty"`
	LastSyncAt   *time.Time        `json:"last_sync_at,omitempty"`
	LastStatus   SyncStatus        `json:"last_status,omitempty"`
}

type SyncStatus string

const (
	SyncSuccess    SyncStatus = "success"
	SyncFailed     SyncStatus = "failed"
	SyncPartial    SyncStatus = "partial"
	SyncProcessing SyncStatus = "processing"
)

type SyncResult struct {
	RunID     string     `json:"run_id"`
	Status    SyncStatus `json:"status"`
	Processed int        `json:"processed"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Message   string     `json:"message,omitempty"`
}

// ErrorBody is the JSON shape of every non-2xx API response.
type ErrorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
