package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/storage"
)

const (
	// TokenID identifies the MDT token: the 0x02 tag byte followed by 33 zero bytes.
	TokenID = "02000000000000000000000000000000000000000000000000000000000000000000"
	// Symbol is the display ticker of the token.
	Symbol = "MDT"
	// DefaultKey is the storage key holding the balance. Bump the suffix on
	// incompatible format changes.
	DefaultKey = "midnight_mdt_balance_v1"
)

// Listener receives the committed balance after every change.
type Listener func(balance int64)

// Ledger maintains a single durable non-negative token balance and broadcasts
// every change to registered listeners. Storage failures never escape: a
// failed read counts as zero and a failed write leaves the stored balance
// unchanged.
type Ledger struct {
	store  storage.Store
	key    string
	logger *slog.Logger

	// mu serializes read-modify-write sequences within this process and
	// orders commits in the delivery queue.
	mu        sync.Mutex
	seq       uint64
	listeners registry
	queue     dispatcher
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

// WithLogger sets the logger used to report swallowed storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a ledger over store. When the key has never been written it is
// initialized to "0".
func New(ctx context.Context, store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		key:    DefaultKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}

	if _, err := store.Get(ctx, l.key); errors.Is(err, storage.ErrNotFound) {
		if err := store.Set(ctx, l.key, "0"); err != nil {
			l.logger.Warn("initialize balance", slog.String("key", l.key), slog.Any("error", err))
		}
	}
	return l
}

// TokenID returns the identifier of the token tracked by the ledger.
func (l *Ledger) TokenID() string { return TokenID }

// Key returns the storage key holding the balance.
func (l *Ledger) Key() string { return l.key }

// Balance returns the stored balance, or 0 when nothing usable is stored.
func (l *Ledger) Balance(ctx context.Context) int64 {
	return l.read(ctx)
}

// TopUp adds max(0, amount) to the balance and returns the balance now
// stored. A zero or negative amount still persists and notifies listeners
// with the unchanged value. If the write fails the still-stored balance is
// returned, not the attempted one.
func (l *Ledger) TopUp(ctx context.Context, amount int64) int64 {
	amt := clamp(amount)

	l.mu.Lock()
	current := l.read(ctx)
	next := current
	if amt > math.MaxInt64-current {
		next = math.MaxInt64
	} else {
		next += amt
	}
	committed, ok := l.write(ctx, next)
	if ok {
		l.commit(committed)
	}
	l.mu.Unlock()

	if !ok {
		return current
	}
	l.queue.drain(l.deliver)
	return committed
}

// Spend removes max(0, amount) from the balance if it is covered. It reports
// whether the spend took effect, so a failed write reports false; spending
// zero is never allowed.
func (l *Ledger) Spend(ctx context.Context, amount int64) bool {
	amt := clamp(amount)
	if amt == 0 {
		return false
	}

	l.mu.Lock()
	current := l.read(ctx)
	if current < amt {
		l.mu.Unlock()
		return false
	}
	committed, ok := l.write(ctx, current-amt)
	if ok {
		l.commit(committed)
	}
	l.mu.Unlock()

	if !ok {
		return false
	}
	l.queue.drain(l.deliver)
	return true
}

// OnBalanceChange registers fn for every future change and calls it with the
// current balance before any later change. Listeners see values in commit
// order; the calls happen on the registering or mutating goroutine, unless
// another goroutine is already delivering, in which case it delivers them.
// The returned function removes this registration; calling it more than once
// is harmless.
func (l *Ledger) OnBalanceChange(fn Listener) (unsubscribe func()) {
	l.mu.Lock()
	id := l.listeners.add(fn, l.seq)
	l.queue.enqueue(delivery{seq: l.seq, balance: l.read(context.Background()), target: id})
	l.mu.Unlock()
	l.queue.drain(l.deliver)

	var once sync.Once
	return func() {
		once.Do(func() { l.listeners.remove(id) })
	}
}

func (l *Ledger) read(ctx context.Context) int64 {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Debug("read balance", slog.String("key", l.key), slog.Any("error", err))
		}
		return 0
	}
	return parseStored(raw)
}

// write persists n and returns the value read back from storage.
func (l *Ledger) write(ctx context.Context, n int64) (int64, bool) {
	if err := l.store.Set(ctx, l.key, strconv.FormatInt(clamp(n), 10)); err != nil {
		l.logger.Warn("write balance", slog.String("key", l.key), slog.Any("error", err))
		return 0, false
	}
	return l.read(ctx), true
}

// ListenerCount reports how many listeners are registered.
func (l *Ledger) ListenerCount() int {
	return l.listeners.len()
}

// commit queues a notification for balance. Callers hold l.mu.
func (l *Ledger) commit(balance int64) {
	l.seq++
	l.queue.enqueue(delivery{seq: l.seq, balance: balance})
}

func (l *Ledger) deliver(e delivery) {
	for _, r := range l.listeners.snapshot() {
		switch {
		case e.target != 0:
			if r.id == e.target {
				l.call(r.fn, e.balance)
			}
		case r.since < e.seq:
			l.call(r.fn, e.balance)
		}
	}
}

func (l *Ledger) call(fn Listener, balance int64) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("balance listener panicked", slog.Any("panic", r))
		}
	}()
	fn(balance)
}
