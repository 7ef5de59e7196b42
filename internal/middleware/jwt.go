package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and admin claims into the request context.  The
// provided secret must match the one used when issuing tokens.  Validation is
// stateless: signature plus expiry, no storage lookup.  This middleware
// should wrap protected routes so that handlers can access authenticated user
// information via `c.Get("user_id")` and `c.Get("is_admin")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token", "code": "INVALID_OR_EXPIRED_TOKEN"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret.  The callback supplies the
            // signing key and rejects tokens signed with anything else.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token", "code": "INVALID_OR_EXPIRED_TOKEN"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token", "code": "INVALID_OR_EXPIRED_TOKEN"})
            }

            // JWT numbers decode as float64; normalize to uint64 so
            // handlers get a usable id without re-asserting types.
            sub, ok := claims["sub"].(float64)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token", "code": "INVALID_OR_EXPIRED_TOKEN"})
            }
            isAdmin, _ := claims["adm"].(bool)

            c.Set("user_id", uint64(sub))
            c.Set("is_admin", isAdmin)
            return next(c)
        }
    }
}
