package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL is the session lifetime when none is configured.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultLeeway absorbs clock drift between issuer and verifier.
	DefaultLeeway = 60 * time.Second
)

var (
	// ErrInvalidSignature means the MAC did not match the secret.
	ErrInvalidSignature = errors.New("jwt: invalid signature")
	// ErrMalformed means the token or its claims could not be parsed.
	ErrMalformed = errors.New("jwt: malformed token")
	// ErrExpired means the token is past its expiry plus leeway.
	ErrExpired = errors.New("jwt: token expired")
)

var signingMethod = jwtlib.SigningMethodHS256

// Claims defines the JWT payload. The wire form carries exactly sub, email and exp.
type Claims struct {
	Subject   int64               `json:"sub"`
	Email     string              `json:"email"`
	ExpiresAt *jwtlib.NumericDate `json:"exp"`
}

func (c Claims) GetExpirationTime() (*jwtlib.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwtlib.NumericDate, error)       { return nil, nil }
func (c Claims) GetNotBefore() (*jwtlib.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                      { return "", nil }
func (c Claims) GetAudience() (jwtlib.ClaimStrings, error)       { return nil, nil }
func (c Claims) GetSubject() (string, error) {
	return strconv.FormatInt(c.Subject, 10), nil
}

// Codec issues and verifies session tokens with a single shared secret.
type Codec struct {
	secret Secret
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithTTL sets the token lifetime. Non-positive values keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLeeway sets the expiry tolerance. Negative values are ignored.
func WithLeeway(leeway time.Duration) Option {
	return func(c *Codec) {
		if leeway >= 0 {
			c.leeway = leeway
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec constructs a Codec bound to secret.
func NewCodec(secret Secret, opts ...Option) *Codec {
	c := &Codec{
		secret: secret,
		ttl:    DefaultTTL,
		leeway: DefaultLeeway,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for subject that expires one TTL from now.
func (c *Codec) Issue(subject int64, email string) (string, time.Time, error) {
	return c.issue(subject, email, c.ttl)
}

func (c *Codec) issue(subject int64, email string, ttl time.Duration) (string, time.Time, error) {
	if c.secret.IsZero() {
		return "", time.Time{}, ErrEmptySecret
	}
	expires := jwtlib.NewNumericDate(c.now().Add(ttl))
	claims := Claims{
		Subject:   subject,
		Email:     email,
		ExpiresAt: expires,
	}
	token := jwtlib.NewWithClaims(signingMethod, claims)
	signed, err := token.SignedString(c.secret.bytes())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires.Time, nil
}

// Decode verifies the signature before looking at any claim, then checks expiry.
func (c *Codec) Decode(token string) (*Claims, error) {
	if c.secret.IsZero() {
		return nil, ErrEmptySecret
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}
	key := c.secret.bytes()
	strict := jwtlib.NewParser(jwtlib.WithStrictDecoding())
	sig, err := strict.DecodeSegment(parts[2])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, key); err != nil {
		return nil, ErrInvalidSignature
	}

	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{signingMethod.Alg()}),
		jwtlib.WithLeeway(c.leeway),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithStrictDecoding(),
		jwtlib.WithTimeFunc(c.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (interface{}, error) {
		return key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSignature
	default:
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// Issue signs a token for subject with secret and ttl using the wall clock.
func Issue(subject int64, email string, secret Secret, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	token, _, err := NewCodec(secret).issue(subject, email, ttl)
	return token, err
}

// Decode validates token against secret with DefaultLeeway.
func Decode(token string, secret Secret) (*Claims, error) {
	return NewCodec(secret).Decode(token)
}
