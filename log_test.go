package goSession

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSecretLogValueMasks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	token := "eyJhbGciOiJIUzI1NiJ9.payload.signature-tail"
	logger.Info("rotated", slog.Any("access_token", secret(token)))

	out := buf.String()
	if strings.Contains(out, "payload") {
		t.Fatalf("credential leaked into log: %s", out)
	}
	if !strings.Contains(out, "########tail") {
		t.Fatalf("expected masked suffix, got %s", out)
	}
}

func TestMaskSecretShortValues(t *testing.T) {
	if got := maskSecret("rt-1"); got != "########" {
		t.Fatalf("short secret not fully masked: %q", got)
	}
	if got := maskSecret(""); got != "########" {
		t.Fatalf("empty secret not masked: %q", got)
	}
}
