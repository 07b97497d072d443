// Package wizard walks an organiser through connecting an external form as
// a data source: authorize, pick the form, pick how it syncs, map its fields
// onto attendee fields, then name and save it.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/mbolis/quick-event/client"
	"github.com/mbolis/quick-event/model"
)

type Step int

const (
	StepOAuth Step = iota
	StepSelectSource
	StepSelectMethod
	StepMapFields
	StepConfigure
	StepSaved
	StepCancelled
)

var stepNames = map[Step]string{
	StepOAuth:        "oauth",
	StepSelectSource: "select_source",
	StepSelectMethod: "select_method",
	StepMapFields:    "map_fields",
	StepConfigure:    "configure",
	StepSaved:        "saved",
	StepCancelled:    "cancelled",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// transitions lists every legal move. Forward moves go one step at a time;
// back returns to the previous step; any open step can be cancelled.
var transitions = map[Step][]Step{
	StepOAuth:        {StepSelectSource, StepCancelled},
	StepSelectSource: {StepSelectMethod, StepOAuth, StepCancelled},
	StepSelectMethod: {StepMapFields, StepSelectSource, StepCancelled},
	StepMapFields:    {StepConfigure, StepSelectMethod, StepCancelled},
	StepConfigure:    {StepSaved, StepMapFields, StepCancelled},
}

func CanTransition(from, to Step) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var (
	ErrIllegalTransition = errors.New("illegal wizard transition")
	ErrNoToken           = errors.New("authorization did not return a token")
	ErrUnknownMethod     = errors.New("unknown sync method")
	ErrUnknownField      = errors.New("unknown attendee field")
	ErrUnknownSource     = errors.New("field not in source form")
	ErrFieldInUse        = errors.New("source field already mapped")
	ErrMappingInvalid    = errors.New("name and email must be mapped to distinct source fields")
	ErrMissingName       = errors.New("data source name is required")
	ErrMissingSchedule   = errors.New("scheduled sync needs a schedule")
)

// Schedules accepted for scheduled sync.
var Schedules = []string{"hourly", "daily", "weekly"}

// Source is an external form and the names of its fields.
type Source struct {
	ID     string
	Title  string
	Fields []string
}

// SourceCatalog describes external forms; *datasource.GoogleForms satisfies it.
type SourceCatalog interface {
	Describe(ctx context.Context, token *oauth2.Token, sourceID string) (Source, error)
}

// Creator persists the finished data source; *client.Client satisfies it.
type Creator interface {
	CreateDataSource(ctx context.Context, ds model.DataSource) (model.DataSource, error)
}

type Wizard struct {
	eventID int64
	catalog SourceCatalog
	creator Creator

	step     Step
	token    *oauth2.Token
	source   Source
	method   model.SyncMethod
	mapping  Mapping
	name     string
	schedule string
	saved    model.DataSource
	err      error
}

func New(eventID int64, catalog SourceCatalog, creator Creator) *Wizard {
	return &Wizard{
		eventID: eventID,
		catalog: catalog,
		creator: creator,
		step:    StepOAuth,
		method:  model.SyncManual,
		mapping: Mapping{},
	}
}

func (w *Wizard) Step() Step               { return w.step }
func (w *Wizard) Source() Source           { return w.source }
func (w *Wizard) Method() model.SyncMethod { return w.method }
func (w *Wizard) Mapping() Mapping         { return w.mapping.Clone() }
func (w *Wizard) Saved() model.DataSource  { return w.saved }

// Err is the last error surfaced by a failed Save.
func (w *Wizard) Err() error { return w.err }

func (w *Wizard) move(to Step) error {
	if !CanTransition(w.step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, w.step, to)
	}
	w.step = to
	return nil
}

func (w *Wizard) expect(step Step) error {
	if w.step != step {
		return fmt.Errorf("%w: %s is not available in %s", ErrIllegalTransition, step, w.step)
	}
	return nil
}

// Authorize stores the tokens granted by the OAuth consent and advances.
func (w *Wizard) Authorize(token *oauth2.Token) error {
	if err := w.expect(StepOAuth); err != nil {
		return err
	}
	if token == nil || token.AccessToken == "" {
		return ErrNoToken
	}
	w.token = token
	return w.move(StepSelectSource)
}

// SelectSource loads the chosen form's fields and advances. Choosing a
// different form than before drops mappings that no longer apply.
func (w *Wizard) SelectSource(ctx context.Context, sourceID string) error {
	if err := w.expect(StepSelectSource); err != nil {
		return err
	}
	src, err := w.catalog.Describe(ctx, w.token, sourceID)
	if err != nil {
		return fmt.Errorf("describe source %q: %w", sourceID, err)
	}

	known := map[string]bool{}
	for _, f := range src.Fields {
		known[f] = true
	}
	for k, v := range w.mapping {
		if !known[v] {
			delete(w.mapping, k)
		}
	}
	w.source = src
	if w.name == "" {
		w.name = src.Title
	}
	return w.move(StepSelectMethod)
}

func (w *Wizard) SelectMethod(m model.SyncMethod) error {
	if err := w.expect(StepSelectMethod); err != nil {
		return err
	}
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
	w.method = m
	if m == model.SyncScheduled && w.schedule == "" {
		w.schedule = Schedules[0]
	}
	return w.move(StepMapFields)
}

// Map sets or, with an empty external name, clears the source field for an
// attendee field.
func (w *Wizard) Map(internal InternalField, external string) error {
	if err := w.expect(StepMapFields); err != nil {
		return err
	}
	if !internal.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, internal)
	}
	external = strings.TrimSpace(external)
	if external == "" {
		delete(w.mapping, internal)
		return nil
	}
	if !contains(w.source.Fields, external) {
		return fmt.Errorf("%w: %q", ErrUnknownSource, external)
	}
	if owner, used := w.mapping.UsedBy(external); used && owner != internal {
		return fmt.Errorf("%w: %q is mapped to %s", ErrFieldInUse, external, owner)
	}
	w.mapping[internal] = external
	return nil
}

// Available lists the source fields internal can be mapped to.
func (w *Wizard) Available(internal InternalField) []string {
	return Available(w.mapping, w.source.Fields, internal)
}

func (w *Wizard) CanConfirm() bool {
	return w.step == StepMapFields && IsMappingValid(w.mapping)
}

// ConfirmMapping advances to the final step once the mapping is valid.
func (w *Wizard) ConfirmMapping() error {
	if err := w.expect(StepMapFields); err != nil {
		return err
	}
	if !IsMappingValid(w.mapping) {
		return ErrMappingInvalid
	}
	return w.move(StepConfigure)
}

func (w *Wizard) Configure(name, schedule string) error {
	if err := w.expect(StepConfigure); err != nil {
		return err
	}
	w.name = strings.TrimSpace(name)
	if schedule != "" {
		w.schedule = schedule
	}
	return nil
}

// Save creates the data source in one call. A rejection keeps the wizard
// on the configure step so the user can fix it and retry.
func (w *Wizard) Save(ctx context.Context) error {
	if err := w.expect(StepConfigure); err != nil {
		return err
	}
	w.err = nil
	if w.name == "" {
		w.err = ErrMissingName
		return w.err
	}
	if w.method == model.SyncScheduled && !contains(Schedules, w.schedule) {
		w.err = fmt.Errorf("%w: %q", ErrMissingSchedule, w.schedule)
		return w.err
	}

	ds := model.DataSource{
		EventID: w.eventID,
		Name:    w.name,
		Type:    model.DataSourceGoogleForms,
		Config: model.DataSourceConfig{
			FormID:       w.source.ID,
			AccessToken:  w.token.AccessToken,
			RefreshToken: w.token.RefreshToken,
			TokenExpiry:  w.token.Expiry,
		},
		FieldMapping: w.mapping.Wire(),
		SyncMethod:   w.method,
	}
	if w.method == model.SyncScheduled {
		ds.SyncSchedule = w.schedule
	}

	saved, err := w.creator.CreateDataSource(ctx, ds)
	if err != nil {
		w.err = err
		return err
	}
	w.saved = saved
	return w.move(StepSaved)
}

// ErrorMessage is the text to show for the last failed save.
func (w *Wizard) ErrorMessage() string {
	if w.err == nil {
		return ""
	}
	if errors.Is(w.err, ErrMissingName) || errors.Is(w.err, ErrMissingSchedule) {
		return w.err.Error()
	}
	return client.Message(w.err, "Could not create the data source.")
}

// Back returns to the previous step, keeping everything chosen so far.
func (w *Wizard) Back() error {
	switch w.step {
	case StepSelectSource:
		return w.move(StepOAuth)
	case StepSelectMethod:
		return w.move(StepSelectSource)
	case StepMapFields:
		return w.move(StepSelectMethod)
	case StepConfigure:
		return w.move(StepMapFields)
	}
	return fmt.Errorf("%w: no step before %s", ErrIllegalTransition, w.step)
}

func (w *Wizard) Cancel() error {
	return w.move(StepCancelled)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
