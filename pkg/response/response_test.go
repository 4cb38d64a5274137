package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, write func(c *gin.Context)) map[string]json.RawMessage {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "req-1")
	write(c)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSuccess_KeepsEmptyListData(t *testing.T) {
	body := render(t, func(c *gin.Context) {
		Success(c, http.StatusOK, []string{}, "ok", nil)
	})

	require.Contains(t, body, "data")
	assert.JSONEq(t, `[]`, string(body["data"]))
	assert.JSONEq(t, `"req-1"`, string(body["request_id"]))
	assert.NotContains(t, body, "meta")
}

func TestSuccess_KeepsZeroValues(t *testing.T) {
	body := render(t, func(c *gin.Context) {
		Success(c, 0, 0, "count", nil)
	})

	assert.JSONEq(t, `200`, string(body["status"]))
	assert.JSONEq(t, `0`, string(body["data"]))
}

func TestError_WritesErrorEnvelope(t *testing.T) {
	body := render(t, func(c *gin.Context) {
		Error[any](c, http.StatusNotFound, "not found", map[string]string{"id": "unknown"})
	})

	assert.JSONEq(t, `false`, string(body["success"]))
	assert.JSONEq(t, `null`, string(body["data"]))
	assert.JSONEq(t, `{"id":"unknown"}`, string(body["error"]))
}
