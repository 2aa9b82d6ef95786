package types

import "log/slog"

// Secret is a credential value that must never appear in logs.
// The logging layer additionally redacts it by type (masq), but
// LogValue keeps it safe even through plain slog handlers.
type Secret string

func (s Secret) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

func (s Secret) String() string {
	return "[REDACTED]"
}

// Unveil returns the raw secret value. Call sites are expected to use
// this only for comparison and outbound authentication.
func (s Secret) Unveil() string {
	return string(s)
}
