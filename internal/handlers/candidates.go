package handlers

import (
	"github.com/arnold/jcihub-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) ListCandidates(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	candidates, err := h.Candidates.List(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(candidates)
}

func (h *Handlers) CreateCandidate(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req models.CreateCandidateRequest
	if !h.parse(c, &req) {
		return nil
	}
	candidate, err := h.Candidates.Create(c.UserContext(), actor, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(candidate)
}

func (h *Handlers) UpdateCandidateStatus(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "candidate")
	if !ok {
		return nil
	}
	var req models.UpdateCandidateStatusRequest
	if !h.parse(c, &req) {
		return nil
	}
	candidate, err := h.Candidates.SetStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(candidate)
}

func (h *Handlers) DeleteCandidate(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "candidate")
	if !ok {
		return nil
	}
	if err := h.Candidates.Delete(c.UserContext(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
