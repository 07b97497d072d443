// Package widget maps a field and its current value to an input control.
// The set of controls is closed: one per kind of field type.
package widget

import (
	"errors"

	"github.com/mbolis/quick-event/model"
)

var ErrUnknownOption = errors.New("option not offered by field")

// Control is one rendered field. Only the types in this package implement it.
type Control interface {
	Field() model.Field
	Value() model.Value
	control()
}

type base struct {
	field    model.Field
	value    model.Value
	onChange func(model.Value)
}

func (b *base) Field() model.Field { return b.field }
func (b *base) Value() model.Value { return b.value }
func (*base) control()             {}

func (b *base) emit(v model.Value) {
	b.value = v
	if b.onChange != nil {
		b.onChange(v)
	}
}

// TextInput covers single-value fields: text, email, date, country, and
// textarea (Multiline).
type TextInput struct {
	base
	Multiline bool
	// Kind is the HTML-ish input kind: text, email, date or country.
	Kind model.FieldType
}

func (c *TextInput) Input(s string) {
	c.emit(model.Value{Text: s})
}

// SingleChoice picks one of the field's options.
type SingleChoice struct {
	base
}

func (c *SingleChoice) Options() []string {
	return c.field.Options
}

func (c *SingleChoice) Select(option string) error {
	if !contains(c.field.Options, option) {
		return ErrUnknownOption
	}
	c.emit(model.Value{Text: option})
	return nil
}

// MultiChoice toggles any number of the field's options.
type MultiChoice struct {
	base
}

func (c *MultiChoice) Options() []string {
	return c.field.Options
}

func (c *MultiChoice) Checked(option string) bool {
	return contains(c.value.Selected, option)
}

func (c *MultiChoice) Toggle(option string) error {
	if !contains(c.field.Options, option) {
		return ErrUnknownOption
	}
	c.emit(model.Value{Selected: ToggleOption(c.value.Selected, option)})
	return nil
}

// Display shows the label of a paragraph or header. It has no value.
type Display struct {
	base
	Heading bool
}

func (c *Display) Text() string {
	return c.field.Label
}

// Render builds the control for f, bound to onChange. The control keeps its
// own copy of the value so successive changes build on each other.
func Render(f model.Field, v model.Value, onChange func(model.Value)) Control {
	b := base{field: f, value: v, onChange: onChange}
	switch f.FieldType {
	case model.TypeParagraph, model.TypeHeader:
		b.onChange = nil
		b.value = model.Value{}
		return &Display{base: b, Heading: f.FieldType == model.TypeHeader}
	case model.TypeMultichoice:
		return &SingleChoice{base: b}
	case model.TypeCheckbox:
		if b.value.Selected == nil {
			b.value.Selected = []string{}
		}
		return &MultiChoice{base: b}
	case model.TypeTextarea:
		return &TextInput{base: b, Multiline: true, Kind: model.TypeText}
	case model.TypeEmail, model.TypeDate, model.TypeCountry:
		return &TextInput{base: b, Kind: f.FieldType}
	default:
		return &TextInput{base: b, Kind: model.TypeText}
	}
}

// ToggleOption appends option to selected, or removes it if present. The
// other selections keep their order; selected is not modified.
func ToggleOption(selected []string, option string) []string {
	if !contains(selected, option) {
		out := make([]string, len(selected), len(selected)+1)
		copy(out, selected)
		return append(out, option)
	}

	out := make([]string, 0, len(selected))
	for _, s := range selected {
		if s != option {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
