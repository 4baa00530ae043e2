package goSession

import (
	"log/slog"
	"strings"
)

const (
	secretMaskCount  = 8
	secretShowSuffix = 4
	secretMinLength  = 16
)

// secret is a credential that logs as "########" plus its last four bytes.
// Short values are hidden entirely.
type secret string

func (s secret) LogValue() slog.Value {
	return slog.StringValue(maskSecret(string(s)))
}

func maskSecret(raw string) string {
	mask := strings.Repeat("#", secretMaskCount)
	if len(raw) < secretMinLength {
		return mask
	}
	return mask + raw[len(raw)-secretShowSuffix:]
}
