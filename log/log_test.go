package log

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetJSON(true)
	t.Cleanup(func() {
		SetJSON(false)
		SetOutput(os.Stderr)
	})

	WithFields(Fields{"data_source": 3}).Info("datasource.sync")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "datasource.sync", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.EqualValues(t, 3, line["data_source"])
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLevel(InfoLevel)
		SetOutput(os.Stderr)
	})

	SetLevel(InfoLevel)
	Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel(DebugLevel)
	Debugf("shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")
}
