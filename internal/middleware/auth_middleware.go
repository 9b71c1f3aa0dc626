package middleware

import (
	"context"
	"errors"
	"strings"

	"go-pos-api/internal/model"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID   = "user_id"
	LocalUserCode = "user_code"
	LocalUserName = "user_name"
	LocalRole     = "role"
	LocalUser     = "user"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*model.User, error)
}

func deny(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
}

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return deny(c, fiber.StatusUnauthorized, "Missing authorization token")
		}

		// "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return deny(c, fiber.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
		}

		user, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionReplaced):
				return deny(c, fiber.StatusUnauthorized, "Session expired (logged in on another device)")
			case errors.Is(err, service.ErrUserInactive):
				return deny(c, fiber.StatusUnauthorized, "User account is inactive")
			case service.ErrorKind(err) == service.KindInfrastructure:
				return deny(c, fiber.StatusInternalServerError, "Internal Server Error")
			}
			return deny(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserCode, user.UserCode)
		c.Locals(LocalUserName, user.Name)
		c.Locals(LocalRole, user.UserType)
		c.Locals(LocalUser, user)

		return c.Next()
	}
}

// RequireRight checks the authenticated user's flags for module. Admins pass.
func RequireRight(module string, action model.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(LocalUser).(*model.User)
		if !ok {
			return deny(c, fiber.StatusForbidden, "No rights found")
		}

		if !user.Can(module, action) {
			return deny(c, fiber.StatusForbidden, "Forbidden: requires '"+module+":"+string(action)+"' right")
		}
		return c.Next()
	}
}
