package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sealink-protocol/sealink-go/pkg/log"
)

func TestFormatFrameEvent(t *testing.T) {
	ts := time.Date(2026, 8, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      128,
			Data:      []byte{0xa1, 0x01, 0x02, 0x03},
			Truncated: false,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-08-28T10:15:32.123456Z") {
		t.Errorf("expected timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[conn:abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}
	if !strings.Contains(output, "OUT") {
		t.Errorf("expected OUT direction, got: %s", output)
	}
	if !strings.Contains(output, "TRANSPORT") {
		t.Errorf("expected TRANSPORT layer, got: %s", output)
	}
	if !strings.Contains(output, "Frame") {
		t.Errorf("expected Frame label, got: %s", output)
	}
	if !strings.Contains(output, "128 bytes") {
		t.Errorf("expected frame size, got: %s", output)
	}
	if !strings.Contains(output, "a1010203") {
		t.Errorf("expected hex data, got: %s", output)
	}
}

func TestFormatFrameEventTruncated(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      8192,
			Data:      bytes.Repeat([]byte{0xff}, 16),
			Truncated: true,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)

	if !strings.Contains(buf.String(), "(truncated)") {
		t.Errorf("expected truncation marker, got: %s", buf.String())
	}
}

func TestFormatSealEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: "def67890-0000-0000-0000-000000000000",
		Direction:    log.DirectionIn,
		Layer:        log.LayerSecretbox,
		Category:     log.CategoryMessage,
		Seal: &log.SealEvent{
			PlaintextSize: 100,
			WireSize:      140,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "SECRETBOX") {
		t.Errorf("expected SECRETBOX layer, got: %s", output)
	}
	if !strings.Contains(output, "Seal") {
		t.Errorf("expected Seal label, got: %s", output)
	}
	if !strings.Contains(output, "Plaintext: 100 bytes") {
		t.Errorf("expected plaintext size, got: %s", output)
	}
	if !strings.Contains(output, "Wire: 140 bytes") {
		t.Errorf("expected wire size, got: %s", output)
	}
}

func TestFormatStateEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerSecretbox,
		Category:  log.CategoryState,
		State: &log.StateEvent{
			OldState: "active",
			NewState: "closed",
			Reason:   "close requested",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "active -> closed") {
		t.Errorf("expected state transition, got: %s", output)
	}
	if !strings.Contains(output, "Reason: close requested") {
		t.Errorf("expected reason, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerSecretbox,
		Category:  log.CategoryError,
		Error: &log.ErrorEvent{
			Op:      "receive",
			Message: "message authentication failed",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Op: receive") {
		t.Errorf("expected operation, got: %s", output)
	}
	if !strings.Contains(output, "Message: message authentication failed") {
		t.Errorf("expected error message, got: %s", output)
	}
}

func TestParseLayerFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Layer
		wantErr bool
	}{
		{"transport", log.LayerTransport, false},
		{"TRANSPORT", log.LayerTransport, false},
		{"secretbox", log.LayerSecretbox, false},
		{"Secretbox", log.LayerSecretbox, false},
		{"wire", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLayerFlag(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLayerFlag(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLayerFlag(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLayerFlag(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseDirectionFlag(t *testing.T) {
	if d, err := ParseDirectionFlag("in"); err != nil || d != log.DirectionIn {
		t.Errorf("ParseDirectionFlag(in) = %v, %v", d, err)
	}
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
}

func TestParseCategoryFlag(t *testing.T) {
	if c, err := ParseCategoryFlag("message"); err != nil || c != log.CategoryMessage {
		t.Errorf("ParseCategoryFlag(message) = %v, %v", c, err)
	}
	if c, err := ParseCategoryFlag("state"); err != nil || c != log.CategoryState {
		t.Errorf("ParseCategoryFlag(state) = %v, %v", c, err)
	}
	if c, err := ParseCategoryFlag("ERROR"); err != nil || c != log.CategoryError {
		t.Errorf("ParseCategoryFlag(ERROR) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("snapshot"); err == nil {
		t.Error("expected error for invalid category")
	}
}

func TestRunViewFiltersLayer(t *testing.T) {
	ts := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerTransport, Category: log.CategoryMessage,
			Frame: &log.FrameEvent{Size: 44}},
		{Timestamp: ts, Layer: log.LayerSecretbox, Category: log.CategoryMessage,
			Seal: &log.SealEvent{PlaintextSize: 0, WireSize: 40}},
	}

	path := createTestLogFile(t, events)

	sealLayer := log.LayerSecretbox
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &sealLayer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "TRANSPORT") {
		t.Errorf("transport events should be filtered out, got:\n%s", output)
	}
	if !strings.Contains(output, "SECRETBOX") {
		t.Errorf("expected secretbox event, got:\n%s", output)
	}
}
