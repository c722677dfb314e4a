package ledger

import (
	"context"
	"strconv"
)

// SeedBalance is a test helper that writes amount straight to the ledger's
// storage key without notifying listeners.
func SeedBalance(l *Ledger, amount int64) {
	_ = l.store.Set(context.Background(), l.key, strconv.FormatInt(amount, 10))
}
