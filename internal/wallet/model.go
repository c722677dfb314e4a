package wallet

import "time"

// Summary describes the wallet token and its current balance.
type Summary struct {
	TokenID string
	Symbol  string
	Balance int64
	AsOf    time.Time
}

// Balance is a point-in-time reading of the ledger.
type Balance struct {
	Amount int64
	AsOf   time.Time
}

// TopUpInput carries a requested credit. A nil Amount credits one token.
type TopUpInput struct {
	Amount *float64
}

// SpendInput carries a requested debit. A nil Amount debits one token.
type SpendInput struct {
	Amount *float64
}

// SpendResult reports the admission decision and the balance afterwards.
type SpendResult struct {
	Spent   bool
	Balance Balance
}
