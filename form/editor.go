package form

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/mbolis/quick-event/model"
)

// ConfigStore is the backend boundary the editor loads from and saves to.
type ConfigStore interface {
	LoadFormConfig(ctx context.Context, eventID int64) (model.FormConfig, error)
	SaveFormConfig(ctx context.Context, eventID int64, fields []model.Field) error
}

// Editor owns the working copy of one event's fields. Every mutation is
// applied to the latest snapshot under a lock; the last committed edit wins.
type Editor struct {
	store   ConfigStore
	eventID int64
	now     func() time.Time

	mu      sync.Mutex
	fields  Fields
	editing int64
	dirty   bool
}

func NewEditor(store ConfigStore, eventID int64) *Editor {
	return &Editor{
		store:   store,
		eventID: eventID,
		now:     time.Now,
		fields:  DefaultFields(),
	}
}

// Merge joins the backend's standard and custom lists back into layout order.
func Merge(cfg model.FormConfig) Fields {
	fields := make(Fields, 0, len(cfg.StandardFields)+len(cfg.CustomFields))
	fields = append(fields, cfg.StandardFields...)
	fields = append(fields, cfg.CustomFields...)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Position < fields[j].Position
	})
	return fields.Positions()
}

// Split is the inverse of Merge.
func Split(fields []model.Field) model.FormConfig {
	cfg := model.FormConfig{
		StandardFields: []model.Field{},
		CustomFields:   []model.Field{},
	}
	for _, f := range fields {
		if IsStandard(f) {
			cfg.StandardFields = append(cfg.StandardFields, f)
		} else {
			cfg.CustomFields = append(cfg.CustomFields, f)
		}
	}
	return cfg
}

func (e *Editor) Load(ctx context.Context) error {
	cfg, err := e.store.LoadFormConfig(ctx, e.eventID)
	if err != nil {
		return fmt.Errorf("load form config: %w", err)
	}
	fields := Merge(cfg)
	if len(fields) == 0 {
		fields = DefaultFields()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields = fields
	e.editing = 0
	e.dirty = false
	return nil
}

// Save validates and persists the whole collection, replacing what the
// backend had.
func (e *Editor) Save(ctx context.Context) error {
	fields := e.Fields()
	if err := Validate(fields); err != nil {
		return err
	}
	if err := e.store.SaveFormConfig(ctx, e.eventID, fields); err != nil {
		return fmt.Errorf("save form config: %w", err)
	}

	e.mu.Lock()
	e.dirty = false
	e.mu.Unlock()
	return nil
}

// Fields returns a copy of the current snapshot.
func (e *Editor) Fields() Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields.clone()
}

// Editing is the id of the field under edit, or 0.
func (e *Editor) Editing() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

func (e *Editor) SetEditing(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fields.Index(id) >= 0 {
		e.editing = id
	} else {
		e.editing = 0
	}
}

func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *Editor) apply(op func(Fields) Fields) Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := op(e.fields)
	if !reflect.DeepEqual(next, e.fields) {
		e.fields = next
		e.dirty = true
	}
	if e.fields.Index(e.editing) < 0 {
		e.editing = 0
	}
	return e.fields.clone()
}

func (e *Editor) ToggleStandardField(systemName string, enabled bool) Fields {
	return e.apply(func(fs Fields) Fields { return fs.ToggleStandardField(systemName, enabled) })
}

func (e *Editor) AddCustomField(t model.FieldType) model.Field {
	var added model.Field
	e.apply(func(fs Fields) Fields {
		var out Fields
		out, added = fs.AddCustomField(t, e.now())
		return out
	})
	if added.ID != 0 {
		e.SetEditing(added.ID)
	}
	return added
}

func (e *Editor) UpdateField(f model.Field) Fields {
	return e.apply(func(fs Fields) Fields { return fs.UpdateField(f) })
}

func (e *Editor) DeleteField(id int64) Fields {
	return e.apply(func(fs Fields) Fields { return fs.DeleteField(id) })
}

func (e *Editor) MoveField(index int, dir Direction) Fields {
	return e.apply(func(fs Fields) Fields { return fs.MoveField(index, dir) })
}

func (e *Editor) Reorder(from, to int) Fields {
	return e.apply(func(fs Fields) Fields { return fs.Reorder(from, to) })
}
