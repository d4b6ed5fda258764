package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/wallet"
)

// RegisterWalletRoutes wires the current-user wallet endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallets/me", h.Me)
	r.Patch("/wallets/me/limits", h.UpdateLimits)
}
