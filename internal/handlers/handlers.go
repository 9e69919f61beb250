package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/jcihub-api/internal/middleware"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/arnold/jcihub-api/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handlers serves the HTTP API on top of the service layer.
type Handlers struct {
	Members       *services.MemberService
	Points        *services.PointsService
	Objectives    *services.ObjectiveService
	Activities    *services.ActivityService
	Candidates    *services.CandidateService
	Notifications *services.NotificationService
	Hub           *Hub
	Log           *zap.Logger

	JWTSecret        string
	TokenTTL         time.Duration
	LeaderboardLimit int

	validate *validator.Validate
}

func New(h Handlers) *Handlers {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	if h.Hub == nil {
		h.Hub = NewHub(h.Log)
	}
	if h.LeaderboardLimit < 1 {
		h.LeaderboardLimit = 10
	}
	h.validate = validator.New()
	return &h
}

// parse decodes the request body into req and runs its validate tags. ok
// is false once an error response has been written.
func (h *Handlers) parse(c *fiber.Ctx, req interface{}) bool {
	if err := c.BodyParser(req); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// actor resolves the authenticated member and their current role.
func (h *Handlers) actor(c *fiber.Ctx) (policy.Actor, error) {
	id := middleware.GetMemberID(c)
	if id == uuid.Nil {
		return policy.Actor{}, fmt.Errorf("%w: not authenticated", policy.ErrForbidden)
	}
	return h.Members.Actor(c.UserContext(), id)
}

// paramID parses a uuid route parameter. ok is false once an error
// response has been written.
func paramID(c *fiber.Ctx, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid " + what + " ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// fail maps service errors onto HTTP statuses.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, policy.ErrForbidden):
		status = fiber.StatusForbidden
	}

	if status == fiber.StatusInternalServerError {
		h.Log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
