package form

import (
	"time"

	"github.com/mbolis/quick-event/model"
)

// Fields is an ordered field collection. Every operation returns a new
// collection and leaves the receiver untouched; a refused operation returns
// an unchanged copy.
type Fields []model.Field

type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

var defaultLabels = map[model.FieldType]string{
	model.TypeText:        "Text Field",
	model.TypeTextarea:    "Long Answer",
	model.TypeMultichoice: "Multiple Choice",
	model.TypeCheckbox:    "Checkboxes",
	model.TypeCountry:     "Country",
	model.TypeDate:        "Date",
	model.TypeParagraph:   "Paragraph text",
	model.TypeHeader:      "Section Header",
	model.TypeEmail:       "Email Address",
}

func (fs Fields) clone() Fields {
	out := make(Fields, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
	}
	return out
}

func (fs Fields) Index(id int64) int {
	for i, f := range fs {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (fs Fields) indexBySystemName(name string) int {
	for i, f := range fs {
		if f.SystemName == name {
			return i
		}
	}
	return -1
}

// Positions renumbers every field's Position to its index.
func (fs Fields) Positions() Fields {
	out := fs.clone()
	for i := range out {
		out[i].Position = i
	}
	return out
}

func (fs Fields) ToggleStandardField(systemName string, enabled bool) Fields {
	out := fs.clone()
	i := out.indexBySystemName(systemName)
	if enabled {
		if i >= 0 {
			return out
		}
		f, ok := Standard(systemName)
		if !ok {
			return out
		}
		return append(out, f).Positions()
	}

	if i < 0 || IsProtected(systemName) {
		return out
	}
	return append(out[:i], out[i+1:]...).Positions()
}

// AddCustomField appends a new field of type t and returns it. Its id is
// derived from now and is always greater than every id in the collection.
func (fs Fields) AddCustomField(t model.FieldType, now time.Time) (Fields, model.Field) {
	out := fs.clone()
	if !t.Valid() {
		return out, model.Field{}
	}

	id := max(now.UnixMilli(), 1)
	for _, f := range out {
		if f.ID >= id {
			id = f.ID + 1
		}
	}

	f := model.Field{
		ID:        id,
		Label:     defaultLabels[t],
		FieldType: t,
		Editable:  true,
		Deletable: true,
	}
	if t.HasOptions() {
		f.Options = []string{"Option 1", "Option 2"}
	}

	out = append(out, f).Positions()
	return out, out[len(out)-1]
}

// UpdateField replaces the field with the same id. Identity and constraint
// flags are kept from the stored field.
func (fs Fields) UpdateField(updated model.Field) Fields {
	out := fs.clone()
	i := out.Index(updated.ID)
	if i < 0 {
		return out
	}
	prev := out[i]

	next := updated.Clone()
	next.SystemName = prev.SystemName
	next.IsFixed = prev.IsFixed
	next.Position = prev.Position
	if prev.SystemName != "" {
		next.FieldType = prev.FieldType
	}
	if !prev.Editable {
		next.Label = prev.Label
		next.Options = prev.Options
		next.Editable = false
	}
	if prev.IsFixed || IsProtected(prev.SystemName) {
		next.Required = true
		next.Deletable = false
	}
	if !next.FieldType.Valid() {
		return out
	}
	if next.FieldType.DisplayOnly() {
		next.Required = false
	}
	if !next.FieldType.HasOptions() {
		next.Options = nil
	}

	out[i] = next
	return out
}

func (fs Fields) DeleteField(id int64) Fields {
	out := fs.clone()
	i := out.Index(id)
	if i < 0 {
		return out
	}
	f := out[i]
	if IsProtected(f.SystemName) || f.IsFixed || !f.Deletable {
		return out
	}
	return append(out[:i], out[i+1:]...).Positions()
}

func (fs Fields) MoveField(index int, dir Direction) Fields {
	out := fs.clone()
	target := index + int(dir)
	if dir != Up && dir != Down {
		return out
	}
	if index < 0 || index >= len(out) || target < 0 || target >= len(out) {
		return out
	}
	if out[index].IsFixed || out[target].IsFixed {
		return out
	}
	out[index], out[target] = out[target], out[index]
	return out.Positions()
}

// Reorder moves the field at from so that it ends up at index to. A fixed
// field anywhere in the affected span refuses the move, since shifting it
// would change its order relative to the moved field.
func (fs Fields) Reorder(from, to int) Fields {
	out := fs.clone()
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	lo, hi := min(from, to), max(from, to)
	for _, f := range out[lo : hi+1] {
		if f.IsFixed {
			return out
		}
	}

	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append(Fields{moved}, out[to:]...)...)
	return out.Positions()
}
