package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequestIDKeepsValidClientValue(t *testing.T) {
	r := newRequestIDRouter()
	rid := uuid.NewString()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, rid)
	r.ServeHTTP(w, req)

	assert.Equal(t, rid, w.Header().Get(HeaderXRequestID))
}

func TestRequestIDReplacesNonUUIDValue(t *testing.T) {
	r := newRequestIDRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "inject\nme")
	r.ServeHTTP(w, req)

	echoed := w.Header().Get(HeaderXRequestID)
	require.NotEmpty(t, echoed)
	assert.NotEqual(t, "inject\nme", echoed)
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
}
