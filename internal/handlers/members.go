package handlers

import (
	"github.com/arnold/jcihub-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	members, err := h.Members.List(c.UserContext(), c.Query("role"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(members)
}

func (h *Handlers) GetMember(c *fiber.Ctx) error {
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	member, err := h.Members.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

func (h *Handlers) UpdateMemberRole(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	var req models.UpdateRoleRequest
	if !h.parse(c, &req) {
		return nil
	}
	member, err := h.Members.SetRole(c.UserContext(), actor, id, req.Role)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

func (h *Handlers) UpdateMemberValidation(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	var req models.UpdateValidationRequest
	if !h.parse(c, &req) {
		return nil
	}
	member, err := h.Members.SetValidation(c.UserContext(), actor, id, req.IsValidated)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

func (h *Handlers) UpdateMemberCotisation(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	var req models.UpdateCotisationRequest
	if !h.parse(c, &req) {
		return nil
	}
	member, err := h.Members.SetCotisation(c.UserContext(), actor, id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

func (h *Handlers) UpdateMemberAdvisor(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	var req models.UpdateAdvisorRequest
	if !h.parse(c, &req) {
		return nil
	}
	member, err := h.Members.SetAdvisor(c.UserContext(), actor, id, req.AdvisorID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(member)
}

func (h *Handlers) DeleteMember(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, ok := paramID(c, "id", "member")
	if !ok {
		return nil
	}
	if err := h.Members.Delete(c.UserContext(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
