package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(_ context.Context, args json.RawMessage) (interface{}, error) {
	return string(args), nil
}

func TestRegisterAndInvoke(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("echo", "Echoes arguments.", echoHandler))

	result, err := r.Invoke(context.Background(), "echo", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, result)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("echo", "", echoHandler))

	err := r.Register("echo", "", echoHandler)
	assert.Error(t, err)
}

func TestRegisterRequiresNameAndHandler(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("", "", echoHandler))
	assert.Error(t, r.Register("broken", "", nil))
}

func TestInvokeUnknownCommand(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke(context.Background(), "missing", nil)
	require.Error(t, err)

	var unknown *UnknownCommandError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.Name)
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("first", "", echoHandler))
	require.NoError(t, r.Register("second", "", echoHandler))
	require.NoError(t, r.Register("third", "", echoHandler))

	listed := r.List()
	require.Len(t, listed, 3)
	assert.Equal(t, "first", listed[0].Name)
	assert.Equal(t, "second", listed[1].Name)
	assert.Equal(t, "third", listed[2].Name)
}

func TestDispatchEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewRegistry()
	require.NoError(t, r.Register("echo", "", echoHandler))

	router := gin.New()
	r.RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/commands/echo", strings.NewReader(`{"x":true}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, `{"x":true}`, response["result"])
}

func TestDispatchEndpointEmptyBodyDefaultsToEmptyObject(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewRegistry()
	require.NoError(t, r.Register("echo", "", echoHandler))

	router := gin.New()
	r.RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/commands/echo", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "{}")
}

func TestDispatchEndpointRejectsNonObjectBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewRegistry()
	require.NoError(t, r.Register("echo", "", echoHandler))

	router := gin.New()
	r.RegisterRoutes(router)

	// Valid JSON that is not an object must be refused before dispatch
	for _, body := range []string{`[1,2,3]`, `"text"`, `42`, `null`} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/commands/echo", strings.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestDispatchEndpointRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewRegistry()
	require.NoError(t, r.Register("echo", "", echoHandler))

	router := gin.New()
	r.RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/commands/echo", strings.NewReader(`{"x":`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchEndpointUnknownCommand(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewRegistry()
	router := gin.New()
	r.RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/commands/missing", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchEndpointHandlerError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewRegistry()
	require.NoError(t, r.Register("fail", "", func(context.Context, json.RawMessage) (interface{}, error) {
		return nil, fmt.Errorf("boom")
	}))

	router := gin.New()
	r.RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/commands/fail", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
