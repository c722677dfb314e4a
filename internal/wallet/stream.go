package wallet

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	eventBalance     = "balance"
	defaultKeepAlive = 15 * time.Second
	keepAliveFrame   = ": keepalive\n\n"
)

// writeEvents frames first and then every value from updates as
// "balance" server-sent events, with comment frames every keepAlive. It
// returns when ctx is done, updates is closed or the client stops reading.
func writeEvents(ctx context.Context, w *bufio.Writer, first int64, updates <-chan int64, keepAlive time.Duration, now func() time.Time) error {
	seq := 0
	emit := func(balance int64) error {
		seq++
		payload, err := json.Marshal(balanceResponse{Balance: balance, AsOf: now()})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, eventBalance, payload); err != nil {
			return err
		}
		return w.Flush()
	}

	if err := emit(first); err != nil {
		return err
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case balance, ok := <-updates:
			if !ok {
				return nil
			}
			if err := emit(balance); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(keepAliveFrame); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}
