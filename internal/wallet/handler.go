package wallet

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service   *Service
	streamCtx context.Context
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewHandler builds a wallet HTTP handler. Event streams end when streamCtx
// is cancelled, which the server does on shutdown.
func NewHandler(service *Service, streamCtx context.Context, logger *slog.Logger) *Handler {
	if streamCtx == nil {
		streamCtx = context.Background()
	}
	return &Handler{service: service, streamCtx: streamCtx, keepAlive: defaultKeepAlive, logger: logger}
}

type amountRequest struct {
	Amount *float64 `json:"amount"`
}

type summaryResponse struct {
	TokenID string    `json:"token_id"`
	Symbol  string    `json:"symbol"`
	Balance int64     `json:"balance"`
	AsOf    time.Time `json:"as_of"`
}

type balanceResponse struct {
	Balance int64     `json:"balance"`
	AsOf    time.Time `json:"as_of"`
}

type spendResponse struct {
	Spent   bool      `json:"spent"`
	Balance int64     `json:"balance"`
	AsOf    time.Time `json:"as_of"`
}

// Summary returns the token description and balance.
func (h *Handler) Summary(c *fiber.Ctx) error {
	s := h.service.Summary(c.UserContext())
	return c.Status(http.StatusOK).JSON(summaryResponse{
		TokenID: s.TokenID,
		Symbol:  s.Symbol,
		Balance: s.Balance,
		AsOf:    s.AsOf,
	})
}

// Balance returns the current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	b := h.service.Balance(c.UserContext())
	return c.Status(http.StatusOK).JSON(balanceResponse{Balance: b.Amount, AsOf: b.AsOf})
}

// TopUp credits the wallet. An empty body credits one token.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	req, err := parseAmount(c)
	if err != nil {
		return err
	}
	b := h.service.TopUp(c.UserContext(), TopUpInput{Amount: req.Amount})
	return c.Status(http.StatusOK).JSON(balanceResponse{Balance: b.Amount, AsOf: b.AsOf})
}

// Spend debits the wallet. A refused spend is not an error: the response
// carries spent=false with the unchanged balance.
func (h *Handler) Spend(c *fiber.Ctx) error {
	req, err := parseAmount(c)
	if err != nil {
		return err
	}
	res := h.service.Spend(c.UserContext(), SpendInput{Amount: req.Amount})
	return c.Status(http.StatusOK).JSON(spendResponse{
		Spent:   res.Spent,
		Balance: res.Balance.Amount,
		AsOf:    res.Balance.AsOf,
	})
}

// Events streams balance changes as server-sent events, starting with the
// current balance.
func (h *Handler) Events(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, keepAlive, now := h.streamCtx, h.keepAlive, h.service.now

	// Subscribe only once the body is being written so a connection that
	// never gets its body leaves no listener behind.
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		updates, cancel := h.service.Subscribe()
		defer cancel()
		first, ok := <-updates
		if !ok {
			return
		}
		if err := writeEvents(ctx, w, first, updates, keepAlive, now); err != nil && h.logger != nil {
			h.logger.Debug("event stream closed", "error", err)
		}
	})
	return nil
}

func parseAmount(c *fiber.Ctx) (amountRequest, error) {
	var req amountRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return req, nil
}
