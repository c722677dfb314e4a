package wallet

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/ledger"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/logging"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/storage"
)

func newTestApp(t *testing.T, streamCtx context.Context) (*fiber.App, *ledger.Ledger) {
	t.Helper()
	led := ledger.New(context.Background(), storage.NewMemory())
	h := NewHandler(NewService(led), streamCtx, logging.Discard())

	app := fiber.New()
	app.Get("/wallet", h.Summary)
	app.Get("/wallet/balance", h.Balance)
	app.Post("/wallet/topup", h.TopUp)
	app.Post("/wallet/spend", h.Spend)
	app.Get("/wallet/events", h.Events)
	return app, led
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHandlerSummary(t *testing.T) {
	app, led := newTestApp(t, nil)
	ledger.SeedBalance(led, 9)

	var got summaryResponse
	if status := doJSON(t, app, http.MethodGet, "/wallet", "", &got); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got.TokenID != ledger.TokenID || got.Symbol != "MDT" || got.Balance != 9 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestHandlerTopUpAndSpend(t *testing.T) {
	app, _ := newTestApp(t, nil)

	var bal balanceResponse
	if status := doJSON(t, app, http.MethodPost, "/wallet/topup", `{"amount": 3}`, &bal); status != http.StatusOK {
		t.Fatalf("top-up: expected 200, got %d", status)
	}
	if bal.Balance != 3 {
		t.Fatalf("expected balance 3, got %d", bal.Balance)
	}

	if doJSON(t, app, http.MethodPost, "/wallet/topup", "", &bal); bal.Balance != 4 {
		t.Fatalf("empty body should credit one token, got %d", bal.Balance)
	}

	var spend spendResponse
	if status := doJSON(t, app, http.MethodPost, "/wallet/spend", `{"amount": 10}`, &spend); status != http.StatusOK {
		t.Fatalf("spend: expected 200, got %d", status)
	}
	if spend.Spent || spend.Balance != 4 {
		t.Fatalf("expected refused spend, got %+v", spend)
	}

	doJSON(t, app, http.MethodPost, "/wallet/spend", `{"amount": 4}`, &spend)
	if !spend.Spent || spend.Balance != 0 {
		t.Fatalf("expected spend to zero, got %+v", spend)
	}

	if doJSON(t, app, http.MethodGet, "/wallet/balance", "", &bal); bal.Balance != 0 {
		t.Fatalf("expected balance 0, got %d", bal.Balance)
	}
}

func TestHandlerRejectsMalformedJSON(t *testing.T) {
	app, _ := newTestApp(t, nil)
	for _, path := range []string{"/wallet/topup", "/wallet/spend"} {
		if status := doJSON(t, app, http.MethodPost, path, `{"amount":`, nil); status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, status)
		}
	}
}

func TestHandlerEventsReplaysAndEndsOnShutdown(t *testing.T) {
	streamCtx, cancel := context.WithCancel(context.Background())
	cancel()
	app, led := newTestApp(t, streamCtx)
	ledger.SeedBalance(led, 6)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wallet/events", nil))
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	scanner := bufio.NewScanner(resp.Body)
	var data string
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	var payload balanceResponse
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("decode event %q: %v", data, err)
	}
	if payload.Balance != 6 {
		t.Fatalf("expected replayed balance 6, got %d", payload.Balance)
	}

	deadline := time.Now().Add(time.Second)
	for led.ListenerCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("stream subscription not released, %d listeners left", led.ListenerCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandlerEventsSubscribesOnlyWhenStreaming(t *testing.T) {
	led := ledger.New(context.Background(), storage.NewMemory())
	h := NewHandler(NewService(led), context.Background(), logging.Discard())

	app := fiber.New()
	fctx := &fasthttp.RequestCtx{}
	c := app.AcquireCtx(fctx)
	defer app.ReleaseCtx(c)

	if err := h.Events(c); err != nil {
		t.Fatalf("events: %v", err)
	}
	if n := led.ListenerCount(); n != 0 {
		t.Fatalf("expected no listener before the body is written, got %d", n)
	}
	if !fctx.Response.IsBodyStream() {
		t.Fatalf("expected a streamed body")
	}
}
