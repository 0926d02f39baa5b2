package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/L235/OversightBot/internal/api/dto"
	"github.com/L235/OversightBot/internal/auth"
	"github.com/L235/OversightBot/internal/service"
	apperrors "github.com/L235/OversightBot/pkg/util"
)

// ReviewersHandler exposes roster management and ping preferences.
type ReviewersHandler struct {
	access *service.AccessService
}

// NewReviewersHandler constructs handler.
func NewReviewersHandler(accessService *service.AccessService) *ReviewersHandler {
	return &ReviewersHandler{access: accessService}
}

// Add POST /reviewers.
func (h *ReviewersHandler) Add(c *fiber.Ctx) error {
	principal, targets, err := parseRosterChange(c)
	if err != nil {
		return err
	}
	if err := h.access.AddReviewers(c.UserContext(), principal.ActorID, targets); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Remove DELETE /reviewers.
func (h *ReviewersHandler) Remove(c *fiber.Ctx) error {
	principal, targets, err := parseRosterChange(c)
	if err != nil {
		return err
	}
	if err := h.access.RemoveReviewers(c.UserContext(), principal.ActorID, targets); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// List GET /reviewers.
func (h *ReviewersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	ids, err := h.access.ListReviewers(c.UserContext(), principal.ActorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReviewerListResponse{UserIDs: ids}})
}

// SetPing PUT /reviewers/ping.
func (h *ReviewersHandler) SetPing(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	var req dto.PingSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.access.SetPingSubscription(c.UserContext(), principal.ActorID, principal.ReviewerRole, req.Enabled); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseRosterChange(c *fiber.Ctx) (*auth.Principal, []int64, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, nil, apperrors.NewUnauthenticated("authentication required")
	}
	var req dto.ModifyReviewersRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.UserIDs) == 0 {
		return nil, nil, apperrors.NewValidationError("user_ids required", nil)
	}
	return principal, req.UserIDs, nil
}
