package handlers

import (
	"strconv"
	"strings"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

// GrantPoints records a manual grant or deduction against a member.
func (h *Handlers) GrantPoints(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	var req models.GrantPointsRequest
	if !h.parse(c, &req) {
		return nil
	}

	entry, err := h.Points.Grant(c.UserContext(), actor, id, req.Points, req.Description, models.SourceManual)
	if err != nil {
		return h.fail(c, err)
	}
	if entry == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *Handlers) GetPointsHistory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	entries, err := h.Points.History(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(entries)
}

func (h *Handlers) GetPointsSummary(c *fiber.Ctx) error {
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	summary, err := h.Points.Summary(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(summary)
}

func (h *Handlers) ReconcilePoints(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	result, err := h.Points.ReconcileMember(c.UserContext(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// GetLeaderboard ranks members by points gained in ?window=, leaving out
// the comma separated roles in ?exclude=.
func (h *Handlers) GetLeaderboard(c *fiber.Ctx) error {
	w, ok := models.ParseWindow(c.Query("window", string(models.WindowAll)))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid window. Must be: week, month, quarter, year, or all",
		})
	}

	limit := h.LeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid limit",
			})
		}
		limit = n
	}

	var exclude []string
	if raw := c.Query("exclude"); raw != "" {
		exclude = strings.Split(raw, ",")
	}

	entries, err := h.Points.Leaderboard(c.UserContext(), w, exclude, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"window":  w,
		"entries": entries,
	})
}
