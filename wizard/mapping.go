package wizard

import "sort"

// InternalField is an attendee property an external field can feed.
type InternalField string

const (
	FieldName       InternalField = "name"
	FieldEmail      InternalField = "email"
	FieldPhone      InternalField = "phone"
	FieldTicketType InternalField = "ticket_type"
	FieldCompany    InternalField = "company"
	FieldPosition   InternalField = "position"
	FieldNotes      InternalField = "notes"
)

var InternalFields = []InternalField{
	FieldName, FieldEmail, FieldPhone, FieldTicketType, FieldCompany, FieldPosition, FieldNotes,
}

// RequiredFields must be mapped before a mapping is usable.
var RequiredFields = []InternalField{FieldName, FieldEmail}

func (f InternalField) Valid() bool {
	for _, known := range InternalFields {
		if known == f {
			return true
		}
	}
	return false
}

// Mapping maps internal fields to external field names. An empty or absent
// entry is unmapped.
type Mapping map[InternalField]string

func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UsedBy returns the internal field already mapped to external, if any.
func (m Mapping) UsedBy(external string) (InternalField, bool) {
	if external == "" {
		return "", false
	}
	for k, v := range m {
		if v == external {
			return k, true
		}
	}
	return "", false
}

// Wire converts the mapping to the JSON shape the backend stores.
func (m Mapping) Wire() map[string]string {
	out := map[string]string{}
	for k, v := range m {
		if v != "" {
			out[string(k)] = v
		}
	}
	return out
}

// IsMappingValid reports whether every required field is mapped and no
// external field is used twice.
func IsMappingValid(m Mapping) bool {
	for _, f := range RequiredFields {
		if m[f] == "" {
			return false
		}
	}
	seen := map[string]bool{}
	for _, v := range m {
		if v == "" {
			continue
		}
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Available lists the source fields internal may still pick: those not used
// by another internal field, plus its own current choice.
func Available(m Mapping, sourceFields []string, internal InternalField) []string {
	out := []string{}
	for _, s := range sourceFields {
		if owner, used := m.UsedBy(s); used && owner != internal {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Unmapped lists required fields that still have no source field.
func Unmapped(m Mapping) []InternalField {
	var out []InternalField
	for _, f := range RequiredFields {
		if m[f] == "" {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
