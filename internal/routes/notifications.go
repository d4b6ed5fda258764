package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kinpay/kinpay/internal/notification"
)

// RegisterNotificationRoutes wires the in-app notification inbox.
func RegisterNotificationRoutes(r fiber.Router, h *notification.Handler) {
	r.Get("/notifications", h.List)
	r.Post("/notifications/:notificationId/read", h.MarkRead)
}
