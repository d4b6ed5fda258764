package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/principal"
)

const principalKey = "principal"

// Authenticate validates the bearer token via the auth provider and stores the
// resolved principal in the request locals.
func Authenticate(provider principal.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		p, err := provider.Authenticate(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(principalKey, p)
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal stored by Authenticate.
func PrincipalFrom(c *fiber.Ctx) (principal.Principal, bool) {
	p, ok := c.Locals(principalKey).(principal.Principal)
	return p, ok
}
