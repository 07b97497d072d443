package model

// FieldType is the closed set of input kinds a registration form supports.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeTextarea    FieldType = "textarea"
	TypeMultichoice FieldType = "multichoice"
	TypeCheckbox    FieldType = "checkbox"
	TypeCountry     FieldType = "country"
	TypeDate        FieldType = "date"
	TypeParagraph   FieldType = "paragraph"
	TypeHeader      FieldType = "header"
	TypeEmail       FieldType = "email"
)

var FieldTypes = []FieldType{
	TypeText, TypeTextarea, TypeMultichoice, TypeCheckbox, TypeCountry,
	TypeDate, TypeParagraph, TypeHeader, TypeEmail,
}

func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// DisplayOnly fields render their label and never hold a value.
func (t FieldType) DisplayOnly() bool {
	return t == TypeParagraph || t == TypeHeader
}

func (t FieldType) HasOptions() bool {
	return t == TypeMultichoice || t == TypeCheckbox
}

// Multi reports whether the field holds several selected options.
func (t FieldType) Multi() bool {
	return t == TypeCheckbox
}

// Field is one configurable registration form field. The position of a
// field in its collection is its layout and submission order.
type Field struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	SystemName string    `json:"systemName,omitempty"`
	FieldType  FieldType `json:"fieldType"`
	Required   bool      `json:"required"`
	Editable   bool      `json:"editable"`
	Deletable  bool      `json:"deletable"`
	IsFixed    bool      `json:"isFixed,omitempty"`
	Options    []string  `json:"options,omitempty"`
	Position   int       `json:"position"`
}

// Clone returns a copy that shares no memory with f.
func (f Field) Clone() Field {
	if f.Options != nil {
		f.Options = append([]string{}, f.Options...)
	}
	return f
}

// Value is what an attendee entered for one field.
type Value struct {
	Text     string
	Selected []string
}

func (v Value) Empty(t FieldType) bool {
	if t.Multi() {
		return len(v.Selected) == 0
	}
	return v.Text == ""
}

// Wire returns the JSON shape of v for a field of type t: a string, or a
// list of strings for checkboxes.
func (v Value) Wire(t FieldType) any {
	if t.Multi() {
		if v.Selected == nil {
			return []string{}
		}
		return v.Selected
	}
	return v.Text
}

// InitialValue is the empty answer for a field; ok is false for
// display-only fields, which hold no value.
func InitialValue(t FieldType) (v Value, ok bool) {
	switch {
	case t.DisplayOnly():
		return Value{}, false
	case t.Multi():
		return Value{Selected: []string{}}, true
	default:
		return Value{}, true
	}
}
