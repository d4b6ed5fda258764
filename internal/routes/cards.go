package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/cards"
)

// RegisterCardRoutes wires credit-card and smart-card management endpoints.
func RegisterCardRoutes(r fiber.Router, h *cards.Handler) {
	r.Post("/credit-cards", h.CreateCreditCard)
	r.Get("/credit-cards", h.ListCreditCards)
	r.Get("/credit-cards/:cardId", h.GetCreditCard)
	r.Patch("/credit-cards/:cardId", h.RenameHolder)
	r.Delete("/credit-cards/:cardId", h.DeleteCreditCard)

	r.Post("/smart-cards", h.CreateSmartCard)
	r.Get("/smart-cards", h.ListSmartCards)
	r.Get("/smart-cards/:cardId", h.GetSmartCard)
}
