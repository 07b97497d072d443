package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbolis/quick-event/model"
)

func TestValidate(t *testing.T) {
	email, _ := Standard(SysEmail)
	first, _ := Standard(SysFirstName)

	notRequired := email
	notRequired.Required = false
	deletable := email
	deletable.Deletable = true

	tests := []struct {
		name   string
		fields []model.Field
		want   error
	}{
		{"defaults", DefaultFields(), nil},
		{"no email", []model.Field{first}, ErrMissingEmail},
		{"two emails", []model.Field{email, func() model.Field { f := email; f.ID = 9; return f }()}, ErrDuplicateEmail},
		{"optional email", []model.Field{notRequired}, ErrEmailNotRequired},
		{"deletable email", []model.Field{deletable}, ErrEmailDeletable},
		{"duplicate id", []model.Field{email, {ID: -4, Label: "x", FieldType: model.TypeText}}, ErrDuplicateID},
		{"bad type", []model.Field{email, {ID: 3, Label: "x", FieldType: "rating"}}, ErrUnknownFieldType},
		{"unknown system name", []model.Field{email, {ID: 3, SystemName: "shoe", FieldType: model.TypeText}}, ErrNotStandard},
		{"custom negative id", []model.Field{email, {ID: -30, Label: "x", FieldType: model.TypeText}}, ErrStandardIDClaimed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.fields)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
