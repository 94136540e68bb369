// Package httperr defines the JSON error body returned by every endpoint
// and the echo error handler that renders it.
package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	CodeValidation         = "validation_error"
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeInvalidCredentials = "invalid_credentials"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeRateLimited        = "rate_limited"
	CodeUpstream           = "upstream_error"
	CodeInternal           = "internal_error"
)

type Body struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func New(status int, code, msg string) *echo.HTTPError {
	return echo.NewHTTPError(status, Body{Error: code, Message: msg})
}

// WithData attaches a payload to the error body, e.g. the order that was
// persisted before the payment provider failed.
func WithData(status int, code, msg string, data any) *echo.HTTPError {
	return echo.NewHTTPError(status, Body{Error: code, Message: msg, Data: data})
}

func CodeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CodeValidation
	case status == http.StatusUnauthorized:
		return CodeUnauthenticated
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound, status == http.StatusMethodNotAllowed:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status == http.StatusBadGateway, status == http.StatusGatewayTimeout:
		return CodeUpstream
	case status >= 500:
		return CodeInternal
	default:
		return http.StatusText(status)
	}
}

// BodyFrom converts any handler error into its wire body.
func BodyFrom(err error) (int, Body) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return http.StatusInternalServerError, Body{Error: CodeInternal, Message: "internal error"}
	}

	switch m := he.Message.(type) {
	case Body:
		return he.Code, m
	case string:
		return he.Code, Body{Error: CodeForStatus(he.Code), Message: m}
	default:
		return he.Code, Body{Error: CodeForStatus(he.Code), Message: fmt.Sprint(m)}
	}
}

// Handler is installed as echo.Echo.HTTPErrorHandler.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := BodyFrom(err)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
