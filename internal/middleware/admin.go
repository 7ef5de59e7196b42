package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireAdmin returns a middleware that rejects any request whose
// access token does not carry the admin flag.  It assumes JWTAuth has
// already stored "is_admin" in the context; a missing value is
// treated the same as a non-admin.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            isAdmin, ok := c.Get("is_admin").(bool)
            if !ok || !isAdmin {
                return c.JSON(http.StatusForbidden, echo.Map{"message": "admin access required", "code": "FORBIDDEN"})
            }
            return next(c)
        }
    }
}
