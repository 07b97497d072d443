package form

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-event/model"
)

func labels(fs Fields) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Label
	}
	return out
}

func sampleFields(t *testing.T) Fields {
	t.Helper()
	fs := DefaultFields().ToggleStandardField("phone", true)
	fs, _ = fs.AddCustomField(model.TypeText, time.UnixMilli(1000))
	fs, _ = fs.AddCustomField(model.TypeCheckbox, time.UnixMilli(1000))
	return fs
}

func assertEmailInvariant(t *testing.T, fs Fields) {
	t.Helper()
	n := 0
	for _, f := range fs {
		if f.SystemName == SysEmail {
			n++
			assert.True(t, f.Required, "email must stay required")
			assert.False(t, f.Deletable, "email must stay non-deletable")
		}
	}
	assert.Equal(t, 1, n)
	assert.NoError(t, Validate(fs))
}

func TestCatalog_OnlyEmailIsFixed(t *testing.T) {
	for _, f := range Catalog() {
		assert.Less(t, f.ID, int64(0), f.SystemName)
		assert.Equal(t, f.SystemName == SysEmail, f.IsFixed, f.SystemName)
		assert.True(t, IsStandard(f))
	}
	assert.False(t, IsStandard(model.Field{ID: 5, Label: "Email"}))
	assert.False(t, IsStandard(model.Field{SystemName: "shoeSize"}))
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := Catalog()
	c[0].Options[0] = "Sir"
	c[1].Label = "Given Name"

	again := Catalog()
	assert.Equal(t, "Mr", again[0].Options[0])
	assert.Equal(t, "First Name", again[1].Label)
}

func TestToggleStandardField_RoundTrip(t *testing.T) {
	fs := sampleFields(t)

	on := fs.ToggleStandardField("jobTitle", true)
	require.Len(t, on, len(fs)+1)
	assert.Equal(t, "Job Title", on[len(on)-1].Label)

	off := on.ToggleStandardField("jobTitle", false)
	assert.Equal(t, labels(fs), labels(off))
	assert.Equal(t, fs, off)
}

func TestToggleStandardField_SkipsDuplicatesAndUnknown(t *testing.T) {
	fs := sampleFields(t)
	assert.Equal(t, fs, fs.ToggleStandardField("phone", true))
	assert.Equal(t, fs, fs.ToggleStandardField("favouriteColour", true))
	assert.Equal(t, fs, fs.ToggleStandardField("company", false))
}

func TestToggleStandardField_ProtectedCannotBeDisabled(t *testing.T) {
	fs := sampleFields(t)
	for _, name := range []string{SysFirstName, SysLastName, SysEmail} {
		assert.Equal(t, fs, fs.ToggleStandardField(name, false), name)
	}
}

func TestToggleStandardField_FreshFlags(t *testing.T) {
	fs := DefaultFields().ToggleStandardField("salutation", true)
	i := fs.indexBySystemName("salutation")
	fs[i].Options[0] = "Lord"

	again := DefaultFields().ToggleStandardField("salutation", true)
	assert.Equal(t, "Mr", again[again.indexBySystemName("salutation")].Options[0])
}

func TestAddCustomField_Checkbox(t *testing.T) {
	fs := sampleFields(t)
	out, f := fs.AddCustomField(model.TypeCheckbox, time.UnixMilli(1))

	require.Len(t, out, len(fs)+1)
	assert.Equal(t, f, out[len(out)-1])
	assert.Equal(t, []string{"Option 1", "Option 2"}, f.Options)
	assert.Equal(t, model.TypeCheckbox, f.FieldType)
	for _, other := range fs {
		assert.NotEqual(t, other.ID, f.ID)
	}
	assert.Greater(t, f.ID, int64(0))
}

func TestAddCustomField_UsesClock(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	_, f := DefaultFields().AddCustomField(model.TypeText, now)
	assert.Equal(t, now.UnixMilli(), f.ID)
	assert.Equal(t, "Text Field", f.Label)
	assert.Nil(t, f.Options)
}

func TestAddCustomField_UnknownTypeIsNoop(t *testing.T) {
	fs := DefaultFields()
	out, f := fs.AddCustomField("signature", time.Now())
	assert.Equal(t, fs, out)
	assert.Zero(t, f.ID)
}

func TestUpdateField(t *testing.T) {
	fs := sampleFields(t)
	custom := fs[len(fs)-2]
	custom.Label = "T-shirt size"
	custom.Required = true

	out := fs.UpdateField(custom)
	assert.Equal(t, "T-shirt size", out[len(out)-2].Label)
	assert.True(t, out[len(out)-2].Required)
	assert.Equal(t, "Text Field", fs[len(fs)-2].Label, "input must not change")

	missing := fs.UpdateField(model.Field{ID: 424242, Label: "ghost", FieldType: model.TypeText})
	assert.Equal(t, fs, missing)
}

func TestUpdateField_KeepsConstraints(t *testing.T) {
	fs := sampleFields(t)
	email := fs[fs.indexBySystemName(SysEmail)]
	email.Required = false
	email.Deletable = true
	email.IsFixed = false
	email.Label = "E-mail"
	email.SystemName = ""

	out := fs.UpdateField(email)
	got := out[out.indexBySystemName(SysEmail)]
	assert.True(t, got.Required)
	assert.False(t, got.Deletable)
	assert.True(t, got.IsFixed)
	assert.Equal(t, "Email", got.Label)
	assertEmailInvariant(t, out)

	first := fs[fs.indexBySystemName(SysFirstName)]
	first.Required = false
	first.Label = "Given name"
	out = fs.UpdateField(first)
	got = out[out.indexBySystemName(SysFirstName)]
	assert.True(t, got.Required)
	assert.Equal(t, "Given name", got.Label)
}

func TestDeleteField(t *testing.T) {
	fs := sampleFields(t)
	phone := fs[fs.indexBySystemName(SysPhone)]

	out := fs.DeleteField(phone.ID)
	assert.Len(t, out, len(fs)-1)
	assert.Equal(t, -1, out.indexBySystemName(SysPhone))
	for i, f := range out {
		assert.Equal(t, i, f.Position)
	}

	for _, name := range []string{SysFirstName, SysLastName, SysEmail} {
		id := fs[fs.indexBySystemName(name)].ID
		assert.Equal(t, fs, fs.DeleteField(id), name)
	}
	assert.Equal(t, fs, fs.DeleteField(999))
}

func TestMoveField(t *testing.T) {
	fs := Fields{
		{ID: 1, Label: "a", FieldType: model.TypeText},
		{ID: 2, Label: "b", FieldType: model.TypeText},
		{ID: 3, Label: "c", FieldType: model.TypeText, IsFixed: true},
		{ID: 4, Label: "d", FieldType: model.TypeText},
	}

	tests := []struct {
		name  string
		index int
		dir   Direction
		want  []string
	}{
		{"down", 0, Down, []string{"b", "a", "c", "d"}},
		{"up", 1, Up, []string{"b", "a", "c", "d"}},
		{"top bound", 0, Up, []string{"a", "b", "c", "d"}},
		{"bottom bound", 3, Down, []string{"a", "b", "c", "d"}},
		{"into fixed", 1, Down, []string{"a", "b", "c", "d"}},
		{"fixed itself", 2, Up, []string{"a", "b", "c", "d"}},
		{"out of range", 9, Up, []string{"a", "b", "c", "d"}},
		{"bad direction", 0, 2, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labels(fs.MoveField(tt.index, tt.dir)))
		})
	}
}

func TestReorder(t *testing.T) {
	fs := Fields{
		{ID: 1, Label: "a", FieldType: model.TypeText},
		{ID: 2, Label: "b", FieldType: model.TypeText},
		{ID: 3, Label: "c", FieldType: model.TypeText},
		{ID: 4, Label: "fixed", FieldType: model.TypeEmail, IsFixed: true},
		{ID: 5, Label: "e", FieldType: model.TypeText},
	}

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "fixed", "e"}},
		{"backward", 2, 0, []string{"c", "a", "b", "fixed", "e"}},
		{"onto fixed", 0, 3, []string{"a", "b", "c", "fixed", "e"}},
		{"across fixed", 4, 0, []string{"a", "b", "c", "fixed", "e"}},
		{"fixed source", 3, 0, []string{"a", "b", "c", "fixed", "e"}},
		{"same index", 1, 1, []string{"a", "b", "c", "fixed", "e"}},
		{"out of range", 0, 7, []string{"a", "b", "c", "fixed", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := fs.Reorder(tt.from, tt.to)
			assert.Equal(t, tt.want, labels(out))
			for i, f := range out {
				assert.Equal(t, i, f.Position)
			}
		})
	}
}

// Random edit sequences must never break the email invariant or move
// anything across a fixed field.
func TestOperations_PreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	names := []string{"salutation", SysFirstName, SysLastName, SysEmail, SysPhone, "company", "jobTitle"}

	for run := 0; run < 50; run++ {
		fs := DefaultFields()
		for step := 0; step < 60; step++ {
			before := fs
			switch rng.Intn(6) {
			case 0:
				fs = fs.ToggleStandardField(names[rng.Intn(len(names))], rng.Intn(2) == 0)
			case 1:
				fs, _ = fs.AddCustomField(model.FieldTypes[rng.Intn(len(model.FieldTypes))], time.UnixMilli(int64(step)))
			case 2:
				if len(fs) > 0 {
					f := fs[rng.Intn(len(fs))]
					f.Required = !f.Required
					f.Deletable = true
					fs = fs.UpdateField(f)
				}
			case 3:
				if len(fs) > 0 {
					fs = fs.DeleteField(fs[rng.Intn(len(fs))].ID)
				}
			case 4:
				fs = fs.MoveField(rng.Intn(len(fs)), Direction(rng.Intn(2)*2-1))
			case 5:
				fs = fs.Reorder(rng.Intn(len(fs)), rng.Intn(len(fs)))
			}
			assertEmailInvariant(t, fs)
			assertFixedOrder(t, before, fs)
		}
	}
}

func assertFixedOrder(t *testing.T, before, after Fields) {
	t.Helper()
	for _, fixed := range before {
		if !fixed.IsFixed {
			continue
		}
		fb, fa := before.Index(fixed.ID), after.Index(fixed.ID)
		for _, other := range before {
			ob, oa := before.Index(other.ID), after.Index(other.ID)
			if oa < 0 || other.ID == fixed.ID {
				continue
			}
			assert.Equal(t, ob < fb, oa < fa, "field %d crossed fixed field", other.ID)
		}
	}
}
