package wizard

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/mbolis/quick-event/client"
	"github.com/mbolis/quick-event/model"
)

type fakeCatalog map[string]Source

func (c fakeCatalog) Describe(ctx context.Context, token *oauth2.Token, id string) (Source, error) {
	src, ok := c[id]
	if !ok {
		return Source{}, errors.New("form not found")
	}
	return src, nil
}

type fakeCreator struct {
	err     error
	created []model.DataSource
}

func (c *fakeCreator) CreateDataSource(ctx context.Context, ds model.DataSource) (model.DataSource, error) {
	c.created = append(c.created, ds)
	if c.err != nil {
		return model.DataSource{}, c.err
	}
	ds.ID = int64(len(c.created))
	return ds, nil
}

var catalog = fakeCatalog{
	"form-a": {ID: "form-a", Title: "Signups", Fields: []string{"Full name", "E-mail", "Mobile", "Employer"}},
	"form-b": {ID: "form-b", Title: "Other", Fields: []string{"Full name", "Mail"}},
}

func token() *oauth2.Token {
	return &oauth2.Token{AccessToken: "at", RefreshToken: "rt"}
}

func toMapFields(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.Authorize(token()))
	require.NoError(t, w.SelectSource(context.Background(), "form-a"))
	require.NoError(t, w.SelectMethod(model.SyncRealtime))
	require.Equal(t, StepMapFields, w.Step())
}

func TestCanTransition_NoSkipping(t *testing.T) {
	steps := []Step{StepOAuth, StepSelectSource, StepSelectMethod, StepMapFields, StepConfigure, StepSaved}
	for i, from := range steps {
		for j, to := range steps {
			want := j == i+1 || (j == i-1 && from != StepSaved)
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(StepSaved, StepCancelled))
	assert.True(t, CanTransition(StepConfigure, StepCancelled))
}

func TestIsMappingValid(t *testing.T) {
	tests := []struct {
		name string
		m    Mapping
		want bool
	}{
		{"empty", Mapping{}, false},
		{"no email", Mapping{FieldName: "a"}, false},
		{"no name", Mapping{FieldEmail: "b"}, false},
		{"blank name", Mapping{FieldName: "", FieldEmail: "b"}, false},
		{"minimal", Mapping{FieldName: "a", FieldEmail: "b"}, true},
		{"with optional", Mapping{FieldName: "a", FieldEmail: "b", FieldPhone: "c", FieldNotes: ""}, true},
		{"duplicate required", Mapping{FieldName: "a", FieldEmail: "a"}, false},
		{"duplicate optional", Mapping{FieldName: "a", FieldEmail: "b", FieldPhone: "c", FieldCompany: "c"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMappingValid(tt.m))
		})
	}
}

func TestWizard_HappyPath(t *testing.T) {
	creator := &fakeCreator{}
	w := New(42, catalog, creator)
	toMapFields(t, w)

	assert.ErrorIs(t, w.ConfirmMapping(), ErrMappingInvalid)
	require.NoError(t, w.Map(FieldName, "Full name"))
	assert.False(t, w.CanConfirm())
	require.NoError(t, w.Map(FieldEmail, "E-mail"))
	require.NoError(t, w.Map(FieldCompany, "Employer"))
	assert.True(t, w.CanConfirm())

	require.NoError(t, w.ConfirmMapping())
	require.NoError(t, w.Configure("  Spring signups ", ""))
	require.NoError(t, w.Save(context.Background()))
	assert.Equal(t, StepSaved, w.Step())

	require.Len(t, creator.created, 1)
	ds := creator.created[0]
	assert.Equal(t, int64(42), ds.EventID)
	assert.Equal(t, "Spring signups", ds.Name)
	assert.Equal(t, model.DataSourceGoogleForms, ds.Type)
	assert.Equal(t, "form-a", ds.Config.FormID)
	assert.Equal(t, "at", ds.Config.AccessToken)
	assert.Equal(t, "rt", ds.Config.RefreshToken)
	assert.Equal(t, model.SyncRealtime, ds.SyncMethod)
	assert.Empty(t, ds.SyncSchedule)
	assert.Equal(t, map[string]string{"name": "Full name", "email": "E-mail", "company": "Employer"}, ds.FieldMapping)
	assert.Equal(t, int64(1), w.Saved().ID)
}

func TestWizard_MapRejectsReuse(t *testing.T) {
	w := New(1, catalog, &fakeCreator{})
	toMapFields(t, w)

	require.NoError(t, w.Map(FieldName, "Full name"))
	assert.ErrorIs(t, w.Map(FieldEmail, "Full name"), ErrFieldInUse)
	assert.ErrorIs(t, w.Map(FieldEmail, "Fax"), ErrUnknownSource)
	assert.ErrorIs(t, w.Map("shoe_size", "Mobile"), ErrUnknownField)

	assert.Equal(t, []string{"E-mail", "Mobile", "Employer"}, w.Available(FieldEmail))
	assert.Equal(t, []string{"Full name", "E-mail", "Mobile", "Employer"}, w.Available(FieldName))

	require.NoError(t, w.Map(FieldName, "Mobile"))
	require.NoError(t, w.Map(FieldEmail, "Full name"))
	require.NoError(t, w.Map(FieldEmail, ""))
	_, mapped := w.Mapping()[FieldEmail]
	assert.False(t, mapped)
}

func TestWizard_BackKeepsChoices(t *testing.T) {
	w := New(1, catalog, &fakeCreator{})
	toMapFields(t, w)
	require.NoError(t, w.Map(FieldName, "Full name"))
	require.NoError(t, w.Map(FieldEmail, "E-mail"))
	require.NoError(t, w.ConfirmMapping())

	require.NoError(t, w.Back())
	assert.Equal(t, StepMapFields, w.Step())
	assert.Equal(t, "E-mail", w.Mapping()[FieldEmail])
	require.NoError(t, w.Back())
	assert.Equal(t, model.SyncRealtime, w.Method())
	require.NoError(t, w.Back())
	assert.Equal(t, "form-a", w.Source().ID)
	require.NoError(t, w.Back())
	assert.Equal(t, StepOAuth, w.Step())
	assert.ErrorIs(t, w.Back(), ErrIllegalTransition)

	// the same form again keeps the mapping; another form prunes it
	require.NoError(t, w.Authorize(token()))
	require.NoError(t, w.SelectSource(context.Background(), "form-a"))
	assert.Len(t, w.Mapping(), 2)
	require.NoError(t, w.Back())
	require.NoError(t, w.SelectSource(context.Background(), "form-b"))
	assert.Equal(t, Mapping{FieldName: "Full name"}, w.Mapping())
}

func TestWizard_NoSkippingAhead(t *testing.T) {
	w := New(1, catalog, &fakeCreator{})
	assert.ErrorIs(t, w.SelectMethod(model.SyncManual), ErrIllegalTransition)
	assert.ErrorIs(t, w.Map(FieldName, "x"), ErrIllegalTransition)
	assert.ErrorIs(t, w.Save(context.Background()), ErrIllegalTransition)
	assert.ErrorIs(t, w.Authorize(nil), ErrNoToken)
	assert.Equal(t, StepOAuth, w.Step())
}

func TestWizard_SaveRejectedStaysOnConfigure(t *testing.T) {
	creator := &fakeCreator{err: &client.ServerRejection{Status: http.StatusConflict, Message: "data source already exists"}}
	w := New(1, catalog, creator)
	toMapFields(t, w)
	require.NoError(t, w.Map(FieldName, "Full name"))
	require.NoError(t, w.Map(FieldEmail, "E-mail"))
	require.NoError(t, w.ConfirmMapping())

	err := w.Save(context.Background())
	assert.True(t, client.IsStatus(err, http.StatusConflict))
	assert.Equal(t, StepConfigure, w.Step())
	assert.Equal(t, "data source already exists", w.ErrorMessage())

	creator.err = nil
	require.NoError(t, w.Save(context.Background()))
	assert.Equal(t, StepSaved, w.Step())
	assert.Empty(t, w.ErrorMessage())
}

func TestWizard_ScheduledNeedsSchedule(t *testing.T) {
	creator := &fakeCreator{}
	w := New(1, catalog, creator)
	require.NoError(t, w.Authorize(token()))
	require.NoError(t, w.SelectSource(context.Background(), "form-a"))
	require.NoError(t, w.SelectMethod(model.SyncScheduled))
	require.NoError(t, w.Map(FieldName, "Full name"))
	require.NoError(t, w.Map(FieldEmail, "E-mail"))
	require.NoError(t, w.ConfirmMapping())

	require.NoError(t, w.Configure("Signups", "fortnightly"))
	assert.ErrorIs(t, w.Save(context.Background()), ErrMissingSchedule)
	assert.Empty(t, creator.created)

	require.NoError(t, w.Configure("Signups", "daily"))
	require.NoError(t, w.Save(context.Background()))
	assert.Equal(t, "daily", creator.created[0].SyncSchedule)
}

func TestWizard_Cancel(t *testing.T) {
	w := New(1, catalog, &fakeCreator{})
	require.NoError(t, w.Authorize(token()))
	require.NoError(t, w.Cancel())
	assert.Equal(t, StepCancelled, w.Step())
	assert.ErrorIs(t, w.Cancel(), ErrIllegalTransition)
}
