// Package registration drives the public attendee sign-up form: it loads the
// published fields, collects answers, validates required fields locally and
// submits the registration.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mbolis/quick-event/client"
	"github.com/mbolis/quick-event/log"
	"github.com/mbolis/quick-event/model"
	"github.com/mbolis/quick-event/widget"
)

// Service is the backend boundary; *client.Client satisfies it.
type Service interface {
	PublicFormConfig(ctx context.Context, ref string) (model.PublicFormConfig, error)
	Register(ctx context.Context, req model.RegistrationRequest) (model.Registration, error)
}

type State int

const (
	Loading State = iota
	Ready
	Submitting
	Succeeded
	// Failed follows a rejected or undelivered submit. Answers stay
	// editable; the next Set or Submit re-enters Ready.
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const DefaultFailure = "Registration failed. Please try again."

var (
	ErrNotReady     = errors.New("form is not ready")
	ErrUnknownField = errors.New("no such field")
)

// Form is one attendee's registration in progress. Answers are keyed by field
// id; labels only appear in the submitted payload.
type Form struct {
	svc     Service
	eventID int64
	title   string

	mu          sync.Mutex
	state       State
	fields      []model.Field
	values      map[int64]model.Value
	failure     string
	fieldErrors map[int64]string
	result      *model.Registration
}

// Load fetches the published form for ref (event id or slug).
func Load(ctx context.Context, svc Service, ref string) (*Form, error) {
	f := &Form{svc: svc, state: Loading}
	cfg, err := svc.PublicFormConfig(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load form %q: %w", ref, err)
	}

	f.eventID = cfg.EventID
	f.title = cfg.Title
	f.fields = make([]model.Field, len(cfg.Fields))
	f.values = make(map[int64]model.Value, len(cfg.Fields))
	for i, field := range cfg.Fields {
		f.fields[i] = field.Clone()
		if v, ok := model.InitialValue(field.FieldType); ok {
			f.values[field.ID] = v
		}
	}
	f.state = Ready
	return f, nil
}

func (f *Form) EventID() int64 { return f.eventID }
func (f *Form) Title() string  { return f.title }

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Fields() []model.Field {
	out := make([]model.Field, len(f.fields))
	for i, field := range f.fields {
		out[i] = field.Clone()
	}
	return out
}

func (f *Form) field(id int64) (model.Field, bool) {
	for _, field := range f.fields {
		if field.ID == id {
			return field, true
		}
	}
	return model.Field{}, false
}

// Set records the answer for one field.
func (f *Form) Set(fieldID int64, v model.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editable() {
		return ErrNotReady
	}
	if _, ok := f.values[fieldID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownField, fieldID)
	}
	f.state = Ready
	if v.Selected != nil {
		v.Selected = append([]string{}, v.Selected...)
	}
	f.values[fieldID] = v
	delete(f.fieldErrors, fieldID)
	return nil
}

func (f *Form) Value(fieldID int64) model.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[fieldID]
}

// Control renders one field bound to this form.
func (f *Form) Control(fieldID int64) (widget.Control, error) {
	field, ok := f.field(fieldID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, fieldID)
	}
	return widget.Render(field, f.Value(fieldID), func(v model.Value) {
		if err := f.Set(fieldID, v); err != nil {
			log.Debugf("registration: field %d: %s", fieldID, err)
		}
	}), nil
}

// Controls renders every field in layout order.
func (f *Form) Controls() []widget.Control {
	out := make([]widget.Control, 0, len(f.fields))
	for _, field := range f.fields {
		c, _ := f.Control(field.ID)
		out = append(out, c)
	}
	return out
}

// Missing lists the labels of required fields that are still empty.
func (f *Form) Missing() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.missing()
}

func (f *Form) missing() []string {
	var out []string
	for _, field := range f.fields {
		if !field.Required || field.FieldType.DisplayOnly() {
			continue
		}
		v := f.values[field.ID]
		v.Text = strings.TrimSpace(v.Text)
		if v.Empty(field.FieldType) {
			out = append(out, field.Label)
		}
	}
	return out
}

// Failure is the message of the last failed submission.
func (f *Form) Failure() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// FieldError is the server's message for one field after a rejected submit.
func (f *Form) FieldError(fieldID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErrors[fieldID]
}

func (f *Form) Result() (model.Registration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == nil {
		return model.Registration{}, false
	}
	return *f.result, true
}

func (f *Form) editable() bool {
	return f.state == Ready || f.state == Failed
}

// Submit validates and sends the registration. A validation failure returns
// *client.ValidationError without calling the service. Any other failure
// leaves the form Failed with every answer kept.
func (f *Form) Submit(ctx context.Context) (model.Registration, error) {
	f.mu.Lock()
	if !f.editable() {
		f.mu.Unlock()
		return model.Registration{}, ErrNotReady
	}
	if missing := f.missing(); len(missing) > 0 {
		f.failure = ""
		f.mu.Unlock()
		return model.Registration{}, &client.ValidationError{Missing: missing}
	}
	req := f.request()
	f.state = Submitting
	f.failure = ""
	f.fieldErrors = nil
	f.mu.Unlock()

	reg, err := f.svc.Register(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = Failed
		f.failure = client.Message(err, DefaultFailure)
		f.distribute(err)
		return model.Registration{}, err
	}
	f.state = Succeeded
	f.result = &reg
	return reg, nil
}

// distribute maps the server's per-field messages back onto form fields.
func (f *Form) distribute(err error) {
	var rejection *client.ServerRejection
	if !errors.As(err, &rejection) || len(rejection.FieldErrors) == 0 {
		return
	}
	f.fieldErrors = map[int64]string{}
	for key, sysName := range payloadKeys {
		msg, ok := rejection.FieldError(key)
		if !ok {
			continue
		}
		if field, ok := f.lookup(sysName); ok {
			f.fieldErrors[field.ID] = msg
		}
	}
	// answers the backend checks by their custom data key
	for id, key := range DataKeys(f.fields) {
		if _, taken := f.fieldErrors[id]; taken {
			continue
		}
		if msg, ok := rejection.FieldError(key); ok {
			f.fieldErrors[id] = msg
		}
	}
}
