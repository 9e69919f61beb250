package handlers

import (
	"github.com/arnold/jcihub-api/internal/middleware"
	"github.com/arnold/jcihub-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (h *Handlers) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if !h.parse(c, &req) {
		return nil
	}

	member, err := h.Members.Register(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}

	token, err := middleware.GenerateToken(h.JWTSecret, member.ID, member.Email, h.TokenTTL)
	if err != nil {
		h.Log.Error("token generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Token:  token,
		Member: *member,
	})
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if !h.parse(c, &req) {
		return nil
	}

	member, err := h.Members.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}

	token, err := middleware.GenerateToken(h.JWTSecret, member.ID, member.Email, h.TokenTTL)
	if err != nil {
		h.Log.Error("token generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(models.AuthResponse{
		Token:  token,
		Member: *member,
	})
}

// GetMe returns the current member with their points summary.
func (h *Handlers) GetMe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	member, err := h.Members.Get(ctx, middleware.GetMemberID(c))
	if err != nil {
		return h.fail(c, err)
	}
	summary, err := h.Points.Summary(ctx, member.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"member":  member,
		"summary": summary,
	})
}

func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req models.UpdateProfileRequest
	if !h.parse(c, &req) {
		return nil
	}
	member, err := h.Members.UpdateProfile(c.UserContext(), actor, actor.MemberID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

// RegisterDeviceToken saves the FCM token for push notifications
func (h *Handlers) RegisterDeviceToken(c *fiber.Ctx) error {
	var req models.DeviceTokenRequest
	if !h.parse(c, &req) {
		return nil
	}
	if err := h.Members.SetDeviceToken(c.UserContext(), middleware.GetMemberID(c), req.Token); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
