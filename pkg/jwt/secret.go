package jwt

import (
	"errors"
	"log/slog"
)

// ErrEmptySecret is returned when a signing secret has no key material.
var ErrEmptySecret = errors.New("jwt: empty signing secret")

const redacted = "[REDACTED]"

// Secret is the process-wide HMAC key. It is immutable once built and
// renders as a placeholder in every textual form.
type Secret struct {
	key []byte
}

// NewSecret copies value into a Secret.
func NewSecret(value string) (Secret, error) {
	if value == "" {
		return Secret{}, ErrEmptySecret
	}
	return Secret{key: []byte(value)}, nil
}

// UnmarshalText lets configuration loaders populate a Secret directly.
func (s *Secret) UnmarshalText(text []byte) error {
	parsed, err := NewSecret(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Len reports the key length in bytes.
func (s Secret) Len() int { return len(s.key) }

// IsZero reports whether the secret carries no key material.
func (s Secret) IsZero() bool { return len(s.key) == 0 }

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return redacted }

// LogValue keeps the key out of structured logs.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON keeps the key out of serialized configuration dumps.
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// bytes returns a copy so signing code can never alias the stored key.
func (s Secret) bytes() []byte {
	out := make([]byte, len(s.key))
	copy(out, s.key)
	return out
}
