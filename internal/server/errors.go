package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorEnvelope returns the HTTP error handler for this API: every error,
// including routing-level 404/405s from echo, is rendered as the same
// ErrorResponse JSON the handlers emit, so clients parse one shape. In dev
// mode the underlying error text is attached as details.
func ErrorEnvelope(devMode bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "internal server error"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = http.StatusText(code)
			// KeyAuth and bind failures carry a usable string message
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
		}

		resp := ErrorResponse{Error: msg, Code: code}
		if devMode && code == http.StatusInternalServerError {
			resp.Details = err.Error()
		}
		_ = c.JSON(code, resp)
	}
}
