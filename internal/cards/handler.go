package cards

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/middleware"
	"github.com/kinpay/kinpay/internal/transfer"
)

// Handler exposes card HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a card HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type creditCardRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
	CardHolder string `json:"card_holder"`
}

type smartCardRequest struct {
	Balance   int64 `json:"balance"`
	Confirmed bool  `json:"confirm"`
}

type cardResponse struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Type       string     `json:"type"`
	Balance    int64      `json:"balance"`
	CardNumber string     `json:"card_number"`
	ExpiryDate string     `json:"expiry_date"`
	CardHolder string     `json:"card_holder,omitempty"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Confirmed  bool       `json:"confirm,omitempty"`
}

func toResponse(a account.Account) cardResponse {
	resp := cardResponse{
		ID:         a.ID,
		OwnerID:    a.OwnerID,
		Type:       string(a.Type),
		Balance:    a.Balance,
		CardNumber: a.CardNumber,
		ExpiryDate: a.ExpiryDate,
		CardHolder: a.CardHolder,
		Confirmed:  a.Confirmed,
	}
	if !a.IssuedAt.IsZero() {
		issued, expires := a.IssuedAt, a.ExpiresAt
		resp.IssuedAt, resp.ExpiresAt = &issued, &expires
	}
	return resp
}

// CreateCreditCard provisions a credit card for the caller.
func (h *Handler) CreateCreditCard(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req creditCardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	card, err := h.service.CreateCreditCard(c.UserContext(), p.ID, CreditCardInput{
		CardNumber: req.CardNumber,
		ExpiryDate: req.ExpiryDate,
		CVV:        req.CVV,
		CardHolder: req.CardHolder,
	})
	if err != nil {
		return transfer.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"credit_card": toResponse(card)})
}

// ListCreditCards returns the caller's credit cards.
func (h *Handler) ListCreditCards(c *fiber.Ctx) error {
	return h.list(c, account.TypeCreditCard, "credit_cards")
}

// GetCreditCard returns one of the caller's credit cards.
func (h *Handler) GetCreditCard(c *fiber.Ctx) error {
	return h.get(c, account.TypeCreditCard, "credit_card")
}

// RenameHolder updates the card holder name.
func (h *Handler) RenameHolder(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req struct {
		CardHolder string `json:"card_holder"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	card, err := h.service.RenameHolder(c.UserContext(), p.ID, c.Params("cardId"), req.CardHolder)
	if err != nil {
		return transfer.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"credit_card": toResponse(card)})
}

// DeleteCreditCard removes one of the caller's credit cards.
func (h *Handler) DeleteCreditCard(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.service.Delete(c.UserContext(), p.ID, c.Params("cardId")); err != nil {
		return transfer.MapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateSmartCard provisions a time-boxed smart card for the caller.
func (h *Handler) CreateSmartCard(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req smartCardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Balance < 0 {
		return fiber.NewError(http.StatusBadRequest, "balance must not be negative")
	}
	card, err := h.service.CreateSmartCard(c.UserContext(), p.ID, req.Balance, req.Confirmed)
	if err != nil {
		return transfer.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"smart_card": toResponse(card)})
}

// ListSmartCards returns the caller's smart cards.
func (h *Handler) ListSmartCards(c *fiber.Ctx) error {
	return h.list(c, account.TypeSmartCard, "smart_cards")
}

// GetSmartCard returns one of the caller's smart cards.
func (h *Handler) GetSmartCard(c *fiber.Ctx) error {
	return h.get(c, account.TypeSmartCard, "smart_card")
}

func (h *Handler) list(c *fiber.Ctx, t account.Type, field string) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	accounts, err := h.service.List(c.UserContext(), p.ID, t)
	if err != nil {
		return transfer.MapError(err)
	}
	out := make([]cardResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toResponse(a))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": len(out), field: out})
}

func (h *Handler) get(c *fiber.Ctx, t account.Type, field string) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	card, err := h.service.Get(c.UserContext(), p.ID, c.Params("cardId"), t)
	if err != nil {
		return transfer.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{field: toResponse(card)})
}
