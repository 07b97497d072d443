package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-event/model"
)

func TestGrantRecorder_ForwardsToken(t *testing.T) {
	var grant GrantRecorder
	grant.Header().Set("Content-Type", "application/json")
	grant.Write([]byte(`{"access_token":"abc"}`))
	assert.True(t, grant.Granted())

	rec := httptest.NewRecorder()
	grant.Reply(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil), "login.rejected")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"access_token":"abc"}`, rec.Body.String())
}

func TestGrantRecorder_RefusalIsUnauthorized(t *testing.T) {
	var grant GrantRecorder
	grant.WriteHeader(http.StatusBadRequest)
	grant.Write([]byte(`"invalid grant"`))
	assert.False(t, grant.Granted())
	assert.Equal(t, http.StatusBadRequest, grant.Status())

	rec := httptest.NewRecorder()
	grant.Reply(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil), "refresh.rejected")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
}

func TestLogRejection(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register", nil)

	LogRejection(rec, req, "register.validate", "Please check the highlighted fields.", map[string][]string{
		"email": {"must be a valid email address"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body model.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Please check the highlighted fields.", body.Message)
	assert.Equal(t, []string{"must be a valid email address"}, body.Errors["email"])
}

func TestLogNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/events/9", nil)

	LogNotFound(rec, req, "get_event", 9)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Not Found"}`, rec.Body.String())
}
