package handlers

import (
	"github.com/arnold/jcihub-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) ListActivities(c *fiber.Ctx) error {
	activities, err := h.Activities.ListActivities(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(activities)
}

func (h *Handlers) CreateActivity(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req models.CreateActivityRequest
	if !h.parse(c, &req) {
		return nil
	}
	activity, err := h.Activities.CreateActivity(c.UserContext(), actor, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

func (h *Handlers) ListParticipants(c *fiber.Ctx) error {
	id, ok := paramID(c, "id", "activity")
	if !ok {
		return nil
	}
	participants, err := h.Activities.ListParticipants(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(participants)
}

// RecordParticipation marks a member as present and grants the activity's points.
func (h *Handlers) RecordParticipation(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "activity")
	if !ok {
		return nil
	}
	var req models.RecordParticipationRequest
	if !h.parse(c, &req) {
		return nil
	}
	participant, err := h.Activities.RecordParticipation(c.UserContext(), actor, id, req.MemberID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(participant)
}
