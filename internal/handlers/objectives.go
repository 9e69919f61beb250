package handlers

import (
	"github.com/arnold/jcihub-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) ListObjectives(c *fiber.Ctx) error {
	objectives, err := h.Objectives.ListObjectives(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(objectives)
}

// GetClassifications returns the valid group, action and feature triples.
func (h *Handlers) GetClassifications(c *fiber.Ctx) error {
	return c.JSON(models.ClassificationCatalog())
}

func (h *Handlers) CreateObjective(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req models.CreateObjectiveRequest
	if !h.parse(c, &req) {
		return nil
	}
	obj, err := h.Objectives.CreateObjective(c.UserContext(), actor, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(obj)
}

func (h *Handlers) DeleteObjective(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "objective")
	if !ok {
		return nil
	}
	if err := h.Objectives.DeleteObjective(c.UserContext(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) ListMemberObjectives(c *fiber.Ctx) error {
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	list, err := h.Objectives.ListForMember(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(list)
}

func (h *Handlers) AssignObjective(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	memberID, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	objectiveID, ok := paramID(c, "objectiveId", "objective")
	if !ok {
		return nil
	}
	assignment, err := h.Objectives.Assign(c.UserContext(), actor, memberID, objectiveID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

func (h *Handlers) UnassignObjective(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	memberID, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	objectiveID, ok := paramID(c, "objectiveId", "objective")
	if !ok {
		return nil
	}
	if err := h.Objectives.Unassign(c.UserContext(), actor, memberID, objectiveID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) SetObjectiveProgress(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	memberID, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	objectiveID, ok := paramID(c, "objectiveId", "objective")
	if !ok {
		return nil
	}
	var req models.SetProgressRequest
	if !h.parse(c, &req) {
		return nil
	}
	result, err := h.Objectives.SetProgress(c.UserContext(), actor, memberID, objectiveID, req.Progress)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

func (h *Handlers) IncrementObjective(c *fiber.Ctx) error {
	return h.stepObjective(c, 1)
}

func (h *Handlers) DecrementObjective(c *fiber.Ctx) error {
	return h.stepObjective(c, -1)
}

func (h *Handlers) stepObjective(c *fiber.Ctx, step int) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	memberID, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	objectiveID, ok := paramID(c, "objectiveId", "objective")
	if !ok {
		return nil
	}
	result, err := h.Objectives.StepProgress(c.UserContext(), actor, memberID, objectiveID, step)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}
