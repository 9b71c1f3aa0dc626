package handler

import (
	"strconv"
	"time"

	"go-pos-api/internal/middleware"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal Server Error"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data"`
	TotalCount *int64      `json:"totalCount,omitempty"`
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

func page(c *fiber.Ctx, data interface{}, total int64) error {
	return c.JSON(Envelope{Success: true, Data: data, TotalCount: &total})
}

func created(c *fiber.Ctx, msg string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: msg, Data: data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch service.ErrorKind(err) {
	case service.KindValidation, service.KindConflict:
		return fiber.StatusBadRequest
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindUnauthorized:
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// failErr writes err using its kind. Infrastructure detail is logged, never returned.
func failErr(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return fail(c, status, internalErrorMessage)
	}
	return fail(c, status, err.Error())
}

func actorFrom(c *fiber.Ctx) service.Actor {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	name, _ := c.Locals(middleware.LocalUserName).(string)
	if id == "" {
		id = "system"
	}
	return service.Actor{UserID: id, Name: name}
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// queryDate returns the zero time when key is absent, letting the service
// pick its default window.
func queryDate(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := service.ParseDate(raw, time.Local)
	if !ok {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+": "+raw)
	}
	return t, nil
}

func dateRange(c *fiber.Ctx) (from, to time.Time, err error) {
	if from, err = queryDate(c, "fromDate"); err != nil {
		return
	}
	to, err = queryDate(c, "toDate")
	return
}

func pathInt(c *fiber.Ctx, key string) (int, error) {
	n, err := c.ParamsInt(key)
	if err != nil || n <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return n, nil
}

// badRequest writes a fiber.Error as the standard envelope.
func badRequest(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return fail(c, fe.Code, fe.Message)
	}
	return fail(c, fiber.StatusBadRequest, err.Error())
}
