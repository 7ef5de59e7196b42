package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the authenticated user id that JWTAuth stored in
// the Echo context. When no user is authenticated, "guest" is returned
// so rate-limit keys still partition sensibly.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the request context.
func currentUserID(c echo.Context) string {
    if id, ok := c.Get("user_id").(uint64); ok && id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
