// Package form holds the registration form configuration model: the
// standard-field catalog, the editor operations over an ordered field
// collection and the invariants every saved collection satisfies.
package form

import "github.com/mbolis/quick-event/model"

const (
	SysFirstName = "firstName"
	SysLastName  = "lastName"
	SysEmail     = "email"
	SysPhone     = "phone"
)

var catalog = []model.Field{
	{ID: -1, SystemName: "salutation", Label: "Salutation", FieldType: model.TypeMultichoice,
		Editable: true, Deletable: true, Options: []string{"Mr", "Ms", "Mx", "Dr"}},
	{ID: -2, SystemName: SysFirstName, Label: "First Name", FieldType: model.TypeText,
		Required: true, Editable: true},
	{ID: -3, SystemName: SysLastName, Label: "Last Name", FieldType: model.TypeText,
		Required: true, Editable: true},
	{ID: -4, SystemName: SysEmail, Label: "Email", FieldType: model.TypeEmail,
		Required: true, IsFixed: true},
	{ID: -5, SystemName: SysPhone, Label: "Phone", FieldType: model.TypeText, Editable: true, Deletable: true},
	{ID: -6, SystemName: "company", Label: "Company", FieldType: model.TypeText, Editable: true, Deletable: true},
	{ID: -7, SystemName: "jobTitle", Label: "Job Title", FieldType: model.TypeText, Editable: true, Deletable: true},
	{ID: -8, SystemName: "address", Label: "Address", FieldType: model.TypeTextarea, Editable: true, Deletable: true},
	{ID: -9, SystemName: "city", Label: "City", FieldType: model.TypeText, Editable: true, Deletable: true},
	{ID: -10, SystemName: "country", Label: "Country", FieldType: model.TypeCountry, Editable: true, Deletable: true},
	{ID: -11, SystemName: "dateOfBirth", Label: "Date of Birth", FieldType: model.TypeDate, Editable: true, Deletable: true},
}

// protected standard fields can be neither disabled nor deleted, and stay required.
var protected = map[string]bool{
	SysFirstName: true,
	SysLastName:  true,
	SysEmail:     true,
}

// Catalog returns a fresh copy of every standard field, in catalog order.
func Catalog() []model.Field {
	out := make([]model.Field, len(catalog))
	for i, f := range catalog {
		out[i] = f.Clone()
	}
	return out
}

// Standard looks up a catalog entry by system name.
func Standard(systemName string) (model.Field, bool) {
	for _, f := range catalog {
		if f.SystemName == systemName {
			return f.Clone(), true
		}
	}
	return model.Field{}, false
}

func IsStandard(f model.Field) bool {
	if f.SystemName == "" {
		return false
	}
	_, ok := Standard(f.SystemName)
	return ok
}

func IsProtected(systemName string) bool {
	return protected[systemName]
}

// DefaultFields is the collection every new event starts with.
func DefaultFields() Fields {
	fields := Fields{}
	for _, name := range []string{SysFirstName, SysLastName, SysEmail} {
		f, _ := Standard(name)
		fields = append(fields, f)
	}
	return fields.Positions()
}
