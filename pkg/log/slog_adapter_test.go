package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(h))

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-7",
		Direction:    DirectionOut,
		Layer:        LayerSecretbox,
		Category:     CategoryMessage,
		Seal:         &SealEvent{PlaintextSize: 4, WireSize: 44},
	})

	out := buf.String()
	for _, want := range []string{"conn-7", "SECRETBOX", "OUT", "plaintext_size=4", "wire_size=44"} {
		if !strings.Contains(out, want) {
			t.Errorf("slog output missing %q: %s", want, out)
		}
	}
}
