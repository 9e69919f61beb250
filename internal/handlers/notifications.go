package handlers

import (
	"strconv"

	"github.com/arnold/jcihub-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// GetNotifications returns paginated notifications for the current member
func (h *Handlers) GetNotifications(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	result, err := h.Notifications.List(c.UserContext(), middleware.GetMemberID(c), page, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// MarkNotificationRead marks a single notification as read
func (h *Handlers) MarkNotificationRead(c *fiber.Ctx) error {
	id, ok := paramID(c, "id", "notification")
	if !ok {
		return nil
	}
	if err := h.Notifications.MarkRead(c.UserContext(), middleware.GetMemberID(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks all notifications as read for the current member
func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	if err := h.Notifications.MarkAllRead(c.UserContext(), middleware.GetMemberID(c)); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
