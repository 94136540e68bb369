package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyFrom(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{name: "typed body", err: New(http.StatusUnauthorized, CodeTokenExpired, "token expired"), status: 401, code: CodeTokenExpired, msg: "token expired"},
		{name: "plain echo error", err: echo.NewHTTPError(http.StatusNotFound, "missing"), status: 404, code: CodeNotFound, msg: "missing"},
		{name: "echo sentinel", err: echo.ErrMethodNotAllowed, status: 405, code: CodeNotFound, msg: "Method Not Allowed"},
		{name: "raw error", err: errors.New("db exploded"), status: 500, code: CodeInternal, msg: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := BodyFrom(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.msg, body.Message)
		})
	}
}

func TestHandler_WritesJSON(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	Handler(WithData(http.StatusBadGateway, CodeUpstream, "payment provider unavailable", map[string]string{"id": "o1"}), c)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, CodeUpstream, got["error"])
	assert.Equal(t, map[string]any{"id": "o1"}, got["data"])
}
