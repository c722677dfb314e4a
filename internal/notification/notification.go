package notification

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
)

const (
	// KindBalanceChanged is sent after every committed ledger mutation.
	KindBalanceChanged = "balance_changed"
	// KindBalanceDepleted is sent when the balance drops from positive to zero.
	KindBalanceDepleted = "balance_depleted"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

// BalanceWatcher turns ledger balance notifications into messages. The first
// value it observes is the registration replay and only sets the baseline.
type BalanceWatcher struct {
	notifier    Notifier
	destination string
	logger      *slog.Logger

	mu     sync.Mutex
	primed bool
	last   int64
}

// NewBalanceWatcher builds a watcher addressing messages to destination,
// typically the ledger storage key.
func NewBalanceWatcher(notifier Notifier, destination string, logger *slog.Logger) *BalanceWatcher {
	return &BalanceWatcher{notifier: notifier, destination: destination, logger: logger}
}

// Observe has the ledger.Listener signature.
func (w *BalanceWatcher) Observe(balance int64) {
	w.mu.Lock()
	if !w.primed {
		w.primed = true
		w.last = balance
		w.mu.Unlock()
		return
	}
	previous := w.last
	w.last = balance
	w.mu.Unlock()

	ctx := context.Background()
	body := strconv.FormatInt(balance, 10)
	w.send(ctx, Message{Kind: KindBalanceChanged, Destination: w.destination, Body: body})
	if previous > 0 && balance == 0 {
		w.send(ctx, Message{Kind: KindBalanceDepleted, Destination: w.destination, Body: body})
	}
}

// Last returns the most recently observed balance.
func (w *BalanceWatcher) Last() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *BalanceWatcher) send(ctx context.Context, msg Message) {
	if err := w.notifier.Send(ctx, msg); err != nil && w.logger != nil {
		w.logger.Warn("notification failed", "kind", msg.Kind, "error", err)
	}
}
