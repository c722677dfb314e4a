package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints. limiter guards the
// routes that mutate the balance.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, limiter fiber.Handler) {
	w := r.Group("/wallet")
	w.Get("", h.Summary)
	w.Get("/balance", h.Balance)
	w.Get("/events", h.Events)
	w.Post("/topup", limiter, h.TopUp)
	w.Post("/spend", limiter, h.Spend)
}
