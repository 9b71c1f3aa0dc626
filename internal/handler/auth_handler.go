package handler

import (
	"strings"

	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// ResetPasswordRequest represents the reset password request body
type ResetPasswordRequest struct {
	UserID      string `json:"userId"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// Login handles user authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"Success": false, "Message": "Invalid JSON"})
	}

	if strings.TrimSpace(req.UserID) == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"Success": false, "Message": "User ID and password are required"})
	}

	response, err := h.authService.Login(c.UserContext(), req.UserID, req.Password)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status == fiber.StatusInternalServerError {
			h.log.Error("login failed", zap.String("user", req.UserID), zap.Error(err))
			msg = internalErrorMessage
		}
		return c.Status(status).JSON(fiber.Map{"Success": false, "Message": msg})
	}

	return c.JSON(response)
}

// ResetPassword handles password change
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	if req.UserID == "" || req.OldPassword == "" || req.NewPassword == "" {
		return fail(c, fiber.StatusBadRequest, "userId, oldPassword and newPassword are required")
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.UserID, req.OldPassword, req.NewPassword); err != nil {
		return failErr(c, h.log, err)
	}

	return c.JSON(Envelope{Success: true, Message: "Password updated successfully"})
}

// ValidateToken handles JWT token validation
// POST /api/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	if req.Token == "" {
		return fail(c, fiber.StatusBadRequest, "Token is required")
	}

	response, err := h.authService.ValidateToken(c.UserContext(), req.Token)
	if err != nil {
		return failErr(c, h.log, err)
	}

	return ok(c, response)
}

// Register creates a user with the default rights of its type.
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	user, err := h.authService.Register(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return failErr(c, h.log, err)
	}

	return created(c, "User created", user)
}
