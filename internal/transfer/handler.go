package transfer

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/middleware"
	"github.com/kinpay/kinpay/internal/policy"
	"github.com/kinpay/kinpay/internal/principal"
	"github.com/kinpay/kinpay/internal/txlog"
)

// Handler exposes transfer and transaction history endpoints.
type Handler struct {
	service *Service
	log     txlog.Log
}

// NewHandler builds the transfer HTTP handler.
func NewHandler(service *Service, log txlog.Log) *Handler {
	return &Handler{service: service, log: log}
}

type transferRequest struct {
	SecondPartyNationalID string `json:"second_party_national_id"`
	ServiceTag            string `json:"service_tag"`
	Value                 int64  `json:"value"`
	PIN                   string `json:"pin"`
	Direction             string `json:"direction"`
}

// Create executes a transfer on behalf of the authenticated principal.
func (h *Handler) Create(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.Transfer(c.UserContext(), p, Input{
		CounterpartyNationalID: req.SecondPartyNationalID,
		ServiceTag:             req.ServiceTag,
		Value:                  req.Value,
		PIN:                    req.PIN,
		Direction:              txlog.Direction(req.Direction),
	})
	if err != nil {
		return MapError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"transaction": tx})
}

type cardMoveRequest struct {
	Value int64  `json:"value"`
	PIN   string `json:"pin"`
}

// CardTopUp moves value from a credit card into the caller's wallet.
func (h *Handler) CardTopUp(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req cardMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.CardTopUp(c.UserContext(), p, c.Params("cardId"), req.Value, req.PIN)
	if err != nil {
		return MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transaction": tx})
}

// WalletWithdraw moves value from the caller's wallet onto a credit card.
func (h *Handler) WalletWithdraw(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req cardMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.WalletWithdraw(c.UserContext(), p, c.Params("cardId"), req.Value, req.PIN)
	if err != nil {
		return MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transaction": tx})
}

// List returns the caller's transaction history with filter, sort and
// pagination parameters.
func (h *Handler) List(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	q := parseQuery(c)
	txs, err := h.log.QueryByParticipant(c.UserContext(), p.NationalID, q)
	if err != nil {
		return MapError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"result": len(txs), "transactions": txs})
}

// Get returns a single transaction by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	tx, err := h.log.Get(c.UserContext(), c.Params("transactionId"))
	if err != nil {
		return MapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transaction": tx})
}

func parseQuery(c *fiber.Ctx) txlog.Query {
	q := txlog.Query{Filters: map[string]string{}}
	for key, value := range c.Queries() {
		switch key {
		case "page":
			if n, err := strconv.Atoi(value); err == nil {
				q.Page = n
			}
		case "limit":
			if n, err := strconv.Atoi(value); err == nil {
				q.Limit = n
			}
		case "sort":
			for _, s := range strings.Split(value, ",") {
				if s = strings.TrimSpace(s); s != "" {
					q.Sort = append(q.Sort, s)
				}
			}
		default:
			q.Filters[key] = value
		}
	}
	return q
}

// MapError translates domain errors into HTTP responses. Policy violations
// surface their structured message; unexpected errors surface a generic one.
func MapError(err error) error {
	var violation policy.Violation
	switch {
	case errors.As(err, &violation):
		if violation.Kind == policy.KindServiceNotPermitted {
			return fiber.NewError(http.StatusForbidden, violation.Message)
		}
		return fiber.NewError(http.StatusBadRequest, violation.Message)
	case errors.Is(err, ErrInvalidRequest):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, "you are not authorized to do this action")
	case errors.Is(err, account.ErrNotFound), errors.Is(err, txlog.ErrNotFound), errors.Is(err, principal.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "no resource found with this id")
	case errors.Is(err, account.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, account.ErrWithdrawalLimit):
		return fiber.NewError(http.StatusBadRequest, "cash withdrawal limit exceeded")
	case errors.Is(err, account.ErrConflict):
		return fiber.NewError(http.StatusConflict, "concurrent mutation, retry the request")
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
