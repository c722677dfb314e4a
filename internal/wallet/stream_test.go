package wallet

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

var fixedNow = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestWriteEventsFramesReplayAndUpdates(t *testing.T) {
	var buf bytes.Buffer
	updates := make(chan int64, 2)
	updates <- 4
	updates <- 3
	close(updates)

	err := writeEvents(context.Background(), bufio.NewWriter(&buf), 5, updates, time.Hour, fixedNow)
	if err != nil {
		t.Fatalf("write events: %v", err)
	}

	want := "id: 1\nevent: balance\ndata: {\"balance\":5,\"as_of\":\"2026-01-02T03:04:05Z\"}\n\n" +
		"id: 2\nevent: balance\ndata: {\"balance\":4,\"as_of\":\"2026-01-02T03:04:05Z\"}\n\n" +
		"id: 3\nevent: balance\ndata: {\"balance\":3,\"as_of\":\"2026-01-02T03:04:05Z\"}\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected stream:\n%s", buf.String())
	}
}

func TestWriteEventsKeepAliveUntilCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- writeEvents(ctx, bufio.NewWriter(pw), 0, make(chan int64), 10*time.Millisecond, fixedNow)
		pw.Close()
	}()

	reader := bufio.NewReader(pr)
	var sawKeepAlive bool
	for i := 0; i < 10 && !sawKeepAlive; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		sawKeepAlive = strings.HasPrefix(line, ": keepalive")
	}
	if !sawKeepAlive {
		t.Fatalf("expected keepalive comment")
	}

	cancel()
	go io.Copy(io.Discard, reader)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("stream did not stop after cancel")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }

func TestWriteEventsStopsWhenClientGone(t *testing.T) {
	err := writeEvents(context.Background(), bufio.NewWriter(failingWriter{}), 1, make(chan int64), time.Hour, fixedNow)
	if err == nil {
		t.Fatalf("expected write error")
	}
}
