package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Error codes used in API error payloads. Every error response is a
// JSON object {message, code} so clients can react programmatically
// without parsing English text.
const (
	codeBadRequest          = "BAD_REQUEST"
	codeUnsupportedProvider = "UNSUPPORTED_PROVIDER"
	codeInvalidCredentials  = "INVALID_CREDENTIALS"
	codeInvalidToken        = "INVALID_OR_EXPIRED_TOKEN"
	codeForbidden           = "FORBIDDEN"
	codeNotFound            = "NOT_FOUND"
	codeConflict            = "CONFLICT"
	codeInternal            = "INTERNAL"
)

// jsonError writes the standard error envelope.
func jsonError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{"message": message, "code": code})
}

// getUserID pulls the authenticated user id that JWTAuth stored in
// the context.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := c.Get("user_id").(uint64)
	if !ok || id == 0 {
		return 0, errors.New("missing user id in context")
	}
	return id, nil
}

// pathID parses the named path parameter as an unsigned id.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
