package registration

import (
	"fmt"
	"strings"

	"github.com/mbolis/quick-event/form"
	"github.com/mbolis/quick-event/model"
)

// payloadKeys maps the top-level registration properties to the standard
// field they come from.
var payloadKeys = map[string]string{
	"first_name": form.SysFirstName,
	"last_name":  form.SysLastName,
	"email":      form.SysEmail,
	"phone":      form.SysPhone,
}

// labelCandidates are tried when no field carries the system name, e.g. a
// custom field labelled "First Name".
var labelCandidates = map[string][]string{
	form.SysFirstName: {"First Name", "firstName"},
	form.SysLastName:  {"Last Name", "lastName"},
	form.SysEmail:     {"Email", "email"},
	form.SysPhone:     {"Phone", "phone"},
}

func (f *Form) lookup(sysName string) (model.Field, bool) {
	for _, field := range f.fields {
		if field.SystemName == sysName {
			return field, true
		}
	}
	for _, label := range labelCandidates[sysName] {
		for _, field := range f.fields {
			if field.Label == label {
				return field, true
			}
		}
	}
	return model.Field{}, false
}

func (f *Form) text(sysName string) string {
	field, ok := f.lookup(sysName)
	if !ok {
		return ""
	}
	return strings.TrimSpace(f.values[field.ID].Text)
}

func (f *Form) request() model.RegistrationRequest {
	return model.RegistrationRequest{
		EventID:    f.eventID,
		FirstName:  f.text(form.SysFirstName),
		LastName:   f.text(form.SysLastName),
		Email:      f.text(form.SysEmail),
		Phone:      f.text(form.SysPhone),
		CustomData: CustomData(f.fields, f.values),
	}
}

// DataKeys gives every answerable field its key in the label-keyed map the
// backend stores. A label seen before gets a "__N" suffix so no answer is
// overwritten.
func DataKeys(fields []model.Field) map[int64]string {
	keys := make(map[int64]string, len(fields))
	seen := map[string]int{}
	for _, field := range fields {
		if field.FieldType.DisplayOnly() {
			continue
		}
		key := field.Label
		if n := seen[field.Label]; n > 0 {
			key = fmt.Sprintf("%s__%d", field.Label, n)
		}
		seen[field.Label]++
		keys[field.ID] = key
	}
	return keys
}

// CustomData flattens answers into the label-keyed map the backend stores.
func CustomData(fields []model.Field, values map[int64]model.Value) map[string]any {
	keys := DataKeys(fields)
	out := make(map[string]any, len(values))
	for _, field := range fields {
		v, ok := values[field.ID]
		key, answerable := keys[field.ID]
		if !ok || !answerable {
			continue
		}
		out[key] = v.Wire(field.FieldType)
	}
	return out
}
