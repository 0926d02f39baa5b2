package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/L235/OversightBot/internal/api/dto"
	"github.com/L235/OversightBot/internal/auth"
	"github.com/L235/OversightBot/internal/service"
	apperrors "github.com/L235/OversightBot/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle operations to the gateway.
type TicketsHandler struct {
	service *service.OversightService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(oversightService *service.OversightService) *TicketsHandler {
	return &TicketsHandler{service: oversightService}
}

// Submit POST /tickets.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticketID, err := h.service.Submit(c.UserContext(), principal.ActorID, principal.ReviewerRole, req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SubmitTicketResponse{TicketID: ticketID}})
}

// Claim POST /tickets/:id/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Claim(c.UserContext(), principal.ActorID, principal.ReviewerRole, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": claimedTicket(result)})
}

// ClaimAll POST /tickets/claim.
func (h *TicketsHandler) ClaimAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}

	outcomes, err := h.service.ClaimAll(c.UserContext(), principal.ActorID, principal.ReviewerRole)
	if err != nil {
		return err
	}

	resp := dto.ClaimAllResponse{Attempted: len(outcomes), Claimed: []dto.ClaimedTicket{}}
	for _, outcome := range outcomes {
		if outcome.Claimed != nil {
			resp.Claimed = append(resp.Claimed, claimedTicket(outcome.Claimed))
			continue
		}
		// Only the first conflict is reported; the rest are skipped so the
		// requester is not flooded with per-item errors.
		if outcome.ClaimedBy != nil && resp.Conflict == nil {
			msg := fmt.Sprintf("ticket %d already claimed by %d", outcome.TicketID, *outcome.ClaimedBy)
			resp.Conflict = &msg
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Respond POST /tickets/:id/response.
func (h *TicketsHandler) Respond(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Respond(c.UserContext(), principal.ActorID, principal.ReviewerRole, ticketID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RespondResponse{
		TicketID:    result.TicketID,
		AuthorID:    result.AuthorID,
		ExternalRef: result.ExternalRef,
	}})
}

// View GET /tickets/:id.
func (h *TicketsHandler) View(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	view, err := h.service.View(c.UserContext(), principal.ActorID, principal.ReviewerRole, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetail{
		TicketID:    view.TicketID,
		AuthorID:    view.AuthorID,
		Text:        view.Text,
		CreatedAt:   view.CreatedAt,
		ClaimedBy:   view.ClaimedBy,
		ClaimedAt:   view.ClaimedAt,
		RemindedAt:  view.RemindedAt,
		ExternalRef: view.ExternalRef,
	}})
}

// ListPending GET /tickets/pending.
func (h *TicketsHandler) ListPending(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}

	ids, err := h.service.ListPending(c.UserContext(), principal.ActorID, principal.ReviewerRole)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PendingResponse{TicketIDs: ids}})
}

// SetExternalRef PUT /tickets/:id/external-ref.
func (h *TicketsHandler) SetExternalRef(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.ExternalRefRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.service.SetExternalRef(c.UserContext(), ticketID, req.Ref); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("ticket id must be numeric", map[string]any{"id": raw})
	}
	return id, nil
}

func claimedTicket(result *service.ClaimResult) dto.ClaimedTicket {
	return dto.ClaimedTicket{
		TicketID:  result.TicketID,
		AuthorID:  result.AuthorID,
		Text:      result.Text,
		CreatedAt: result.CreatedAt,
		ClaimedBy: result.ClaimedBy,
		ClaimedAt: result.ClaimedAt,
	}
}
