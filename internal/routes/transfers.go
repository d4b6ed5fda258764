package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/transfer"
)

// RegisterTransferRoutes wires transfer and transaction-history endpoints.
// The rate limiter guards only the money-moving POSTs.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler, rateLimiter fiber.Handler) {
	r.Post("/transfers", rateLimiter, h.Create)
	r.Post("/credit-cards/:cardId/top-up", rateLimiter, h.CardTopUp)
	r.Post("/credit-cards/:cardId/withdraw", rateLimiter, h.WalletWithdraw)
	r.Get("/transactions", h.List)
	r.Get("/transactions/:transactionId", h.Get)
}
