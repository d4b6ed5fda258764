// Package wallet exposes the caller's wallet over HTTP. Wallets are
// provisioned when their owner signs up; balances are only ever moved by the
// transfer orchestrator.
package wallet

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/middleware"
	"github.com/kinpay/kinpay/internal/transfer"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	store account.Store
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(store account.Store) *Handler {
	return &Handler{store: store}
}

type walletResponse struct {
	ID                  string `json:"id"`
	OwnerID             string `json:"owner_id"`
	Balance             int64  `json:"balance"`
	LimitPerTransaction int64  `json:"limit_per_transaction"`
	CashWithdrawalLimit int64  `json:"cash_withdrawal_limit"`
	RollingCashUsed     int64  `json:"rolling_cash_used"`
	CashbackAccrued     int64  `json:"cashback_accrued"`
}

func toResponse(a account.Account) walletResponse {
	return walletResponse{
		ID:                  a.ID,
		OwnerID:             a.OwnerID,
		Balance:             a.Balance,
		LimitPerTransaction: a.LimitPerTransaction,
		CashWithdrawalLimit: a.CashWithdrawalLimit,
		RollingCashUsed:     a.RollingCashUsed,
		CashbackAccrued:     a.CashbackAccrued,
	}
}

// Me returns the caller's wallet.
func (h *Handler) Me(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	w, err := h.store.GetByOwner(c.UserContext(), p.ID, account.TypeWallet)
	if err != nil {
		return transfer.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet": toResponse(w)})
}

type limitsRequest struct {
	LimitPerTransaction int64 `json:"limit_per_transaction"`
	CashWithdrawalLimit int64 `json:"cash_withdrawal_limit"`
}

// UpdateLimits adjusts the caller's wallet ceilings. Zero fields are left
// unchanged.
func (h *Handler) UpdateLimits(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req limitsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.LimitPerTransaction < 0 || req.CashWithdrawalLimit < 0 {
		return fiber.NewError(http.StatusBadRequest, "limits must not be negative")
	}

	w, err := h.store.GetByOwner(c.UserContext(), p.ID, account.TypeWallet)
	if err != nil {
		return transfer.MapError(err)
	}
	updated, err := h.store.UpdateLimits(c.UserContext(), w.ID, req.LimitPerTransaction, req.CashWithdrawalLimit)
	if err != nil {
		return transfer.MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet": toResponse(updated)})
}
