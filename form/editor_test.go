package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-event/model"
)

type memoryStore struct {
	cfg   model.FormConfig
	saved []model.Field
	err   error
}

func (m *memoryStore) LoadFormConfig(ctx context.Context, eventID int64) (model.FormConfig, error) {
	return m.cfg, m.err
}

func (m *memoryStore) SaveFormConfig(ctx context.Context, eventID int64, fields []model.Field) error {
	if m.err != nil {
		return m.err
	}
	m.saved = fields
	return nil
}

func TestMergeSplit(t *testing.T) {
	fs := sampleFields(t)
	fs = fs.Reorder(5, 3)

	cfg := Split(fs)
	assert.Len(t, cfg.StandardFields, 4)
	assert.Len(t, cfg.CustomFields, 2)
	assert.Equal(t, fs, Merge(cfg))
}

func TestEditor_LoadEditSave(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{cfg: Split(DefaultFields())}
	e := NewEditor(store, 1)
	e.now = func() time.Time { return time.UnixMilli(5000) }

	require.NoError(t, e.Load(ctx))
	assert.False(t, e.Dirty())

	added := e.AddCustomField(model.TypeMultichoice)
	assert.Equal(t, int64(5000), added.ID)
	assert.Equal(t, added.ID, e.Editing())
	assert.True(t, e.Dirty())

	e.ToggleStandardField("company", true)
	e.Reorder(1, 0)
	e.DeleteField(added.ID)
	assert.Zero(t, e.Editing())

	require.NoError(t, e.Save(ctx))
	assert.False(t, e.Dirty())
	assert.Equal(t, []string{"Last Name", "First Name", "Email", "Company"}, labels(store.saved))
	assert.Equal(t, e.Fields(), Fields(store.saved))
}

func TestEditor_NoOpEditsStayClean(t *testing.T) {
	store := &memoryStore{cfg: Split(DefaultFields())}
	e := NewEditor(store, 1)
	require.NoError(t, e.Load(context.Background()))
	before := e.Fields()

	added := e.AddCustomField(model.FieldType("slider"))
	assert.Zero(t, added.ID)
	e.ToggleStandardField("email", false)
	e.DeleteField(-4)
	e.Reorder(0, 0)
	e.Reorder(0, 99)

	assert.False(t, e.Dirty())
	assert.Equal(t, before, e.Fields())

	e.ToggleStandardField("phone", true)
	assert.True(t, e.Dirty())
}

func TestEditor_SaveRejectsBrokenInvariant(t *testing.T) {
	store := &memoryStore{}
	e := NewEditor(store, 1)
	e.fields = Fields{{ID: 1, Label: "Name", FieldType: model.TypeText}}

	err := e.Save(context.Background())
	assert.ErrorIs(t, err, ErrMissingEmail)
	assert.Nil(t, store.saved)
}

func TestEditor_LoadFailureKeepsSnapshot(t *testing.T) {
	boom := errors.New("boom")
	e := NewEditor(&memoryStore{err: boom}, 1)
	before := e.Fields()

	assert.ErrorIs(t, e.Load(context.Background()), boom)
	assert.Equal(t, before, e.Fields())
}

func TestEditor_ConcurrentEditsAllApply(t *testing.T) {
	e := NewEditor(&memoryStore{}, 1)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.AddCustomField(model.TypeText)
		}()
	}
	wg.Wait()

	fs := e.Fields()
	assert.Len(t, fs, 23)
	assert.NoError(t, Validate(fs))
}
