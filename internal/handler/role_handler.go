package handler

import (
	"go-pos-api/internal/middleware"
	"go-pos-api/internal/model"

	"github.com/gofiber/fiber/v2"
)

// RoleInfo is a user type with the rights a new user of that type receives.
type RoleInfo struct {
	UserType      string            `json:"userType"`
	DefaultRights []model.UserRight `json:"defaultRights"`
}

type RoleHandler struct{}

func NewRoleHandler() *RoleHandler {
	return &RoleHandler{}
}

// GetRoles returns all available user types
// GET /api/auth/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles := make([]RoleInfo, 0, 3)
	for _, t := range []string{model.RoleAdmin, model.RoleManager, model.RoleCashier} {
		roles = append(roles, RoleInfo{UserType: t, DefaultRights: model.DefaultRights(t)})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    roles,
		"modules": model.AllModules,
	})
}

// GetMe returns the authenticated user with its rights.
// GET /api/auth/me
func (h *RoleHandler) GetMe(c *fiber.Ctx) error {
	user, ok := c.Locals(middleware.LocalUser).(*model.User)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    user.ToResponse(),
		"rights":  user.RightCodes(),
	})
}
