package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/ledger"
)

const defaultAmount = 1

// Service exposes wallet operations backed by the ledger.
type Service struct {
	ledger *ledger.Ledger
	now    func() time.Time
}

// NewService builds a wallet service instance.
func NewService(l *ledger.Ledger) *Service {
	return &Service{ledger: l, now: func() time.Time { return time.Now().UTC() }}
}

// Summary returns token metadata with the current balance.
func (s *Service) Summary(ctx context.Context) Summary {
	return Summary{
		TokenID: s.ledger.TokenID(),
		Symbol:  ledger.Symbol,
		Balance: s.ledger.Balance(ctx),
		AsOf:    s.now(),
	}
}

// Balance returns the current balance.
func (s *Service) Balance(ctx context.Context) Balance {
	return Balance{Amount: s.ledger.Balance(ctx), AsOf: s.now()}
}

// TopUp credits the requested amount, normalized to a whole non-negative
// number of tokens.
func (s *Service) TopUp(ctx context.Context, input TopUpInput) Balance {
	amount := s.ledger.TopUp(ctx, amountOrDefault(input.Amount))
	return Balance{Amount: amount, AsOf: s.now()}
}

// Spend debits the requested amount when the balance covers it.
func (s *Service) Spend(ctx context.Context, input SpendInput) SpendResult {
	spent := s.ledger.Spend(ctx, amountOrDefault(input.Amount))
	return SpendResult{Spent: spent, Balance: s.Balance(ctx)}
}

// Subscribe returns a feed of balance changes that starts with the current
// balance. The feed holds only the latest unread value so a slow reader never
// delays the ledger. cancel stops delivery and closes the channel.
func (s *Service) Subscribe() (<-chan int64, func()) {
	f := &feed{ch: make(chan int64, 1)}
	unsubscribe := s.ledger.OnBalanceChange(f.push)

	var once sync.Once
	return f.ch, func() {
		once.Do(func() {
			unsubscribe()
			f.close()
		})
	}
}

func amountOrDefault(amount *float64) int64 {
	if amount == nil {
		return defaultAmount
	}
	return ledger.NormalizeAmount(*amount)
}

type feed struct {
	mu     sync.Mutex
	ch     chan int64
	closed bool
}

func (f *feed) push(balance int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case <-f.ch:
	default:
	}
	f.ch <- balance
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	close(f.ch)
}
