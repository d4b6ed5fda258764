package notification

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/middleware"
)

// Handler serves the caller's stored notifications.
type Handler struct {
	inbox *Inbox
}

// NewHandler builds a notification HTTP handler.
func NewHandler(inbox *Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// List returns the caller's notifications, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	records := h.inbox.ListForRecipient(p.ID)
	return c.Status(http.StatusOK).JSON(fiber.Map{"result": len(records), "notifications": records})
}

// MarkRead flags one of the caller's notifications as read.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	if _, ok := middleware.PrincipalFrom(c); !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if !h.inbox.MarkRead(c.Params("notificationId")) {
		return fiber.NewError(http.StatusNotFound, "no notification found with this id")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "read"})
}
