package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("crypto: malformed password hash")
	// ErrHashing is returned when salt generation or key derivation fails.
	ErrHashing = errors.New("crypto: password hashing failed")
)

const argon2idPrefix = "$argon2id$"

// Params tunes Argon2id key derivation.
type Params struct {
	Memory     uint32 // KiB
	Iterations uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// DefaultParams mirrors the argon2 defaults the accounts table was populated with.
var DefaultParams = Params{
	Memory:     19 * 1024,
	Iterations: 2,
	Threads:    1,
	SaltLength: 16,
	KeyLength:  32,
}

// Hasher produces and checks self-describing Argon2id hashes.
type Hasher struct {
	params Params
	rand   io.Reader
}

// NewHasher constructs a Hasher. Zero fields in p fall back to DefaultParams.
func NewHasher(p Params) Hasher {
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultParams.Iterations
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.SaltLength == 0 {
		p.SaltLength = DefaultParams.SaltLength
	}
	if p.KeyLength == 0 {
		p.KeyLength = DefaultParams.KeyLength
	}
	return Hasher{params: p, rand: rand.Reader}
}

// Params returns the parameters new hashes are produced with.
func (h Hasher) Params() Params {
	return h.params
}

// Hash derives a PHC formatted Argon2id hash with a fresh random salt.
func (h Hasher) Hash(plain string) (string, error) {
	p := h.params
	if p.KeyLength == 0 {
		p = NewHasher(p).params
	}
	src := h.rand
	if src == nil {
		src = rand.Reader
	}
	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(src, salt); err != nil {
		return "", fmt.Errorf("%w: read salt: %v", ErrHashing, err)
	}
	key := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		p.Memory, p.Iterations, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded. The parameters and salt
// embedded in encoded are used, not the hasher's own.
func (h Hasher) Verify(plain, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2idPrefix):
		return verifyArgon2id(plain, encoded)
	case isBcrypt(encoded):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	default:
		return false, ErrMalformedHash
	}
}

// dummyHashes holds one throwaway hash per parameter set.
var dummyHashes sync.Map

func (h Hasher) dummyHash() string {
	if v, ok := dummyHashes.Load(h.params); ok {
		return v.(string)
	}
	encoded, err := h.Hash("equalize")
	if err != nil {
		return ""
	}
	v, _ := dummyHashes.LoadOrStore(h.params, encoded)
	return v.(string)
}

// Equalize spends the same work as a verification against a hash made with
// this hasher's parameters. Login uses it when no account matched so both
// failures cost alike.
func (h Hasher) Equalize(plain string) {
	if encoded := h.dummyHash(); encoded != "" {
		_, _ = h.Verify(plain, encoded)
	}
}

type phc struct {
	params Params
	salt   []byte
	key    []byte
}

func verifyArgon2id(plain, encoded string) (bool, error) {
	parsed, err := parseArgon2id(encoded)
	if err != nil {
		return false, err
	}
	p := parsed.params
	key := argon2.IDKey([]byte(plain), parsed.salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)
	return subtle.ConstantTimeCompare(key, parsed.key) == 1, nil
}

// parseArgon2id splits $argon2id$v=19$m=..,t=..,p=..$salt$key.
func parseArgon2id(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return phc{}, ErrMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return phc{}, fmt.Errorf("%w: version: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return phc{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}
	var out phc
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Iterations, &threads); err != nil {
		return phc{}, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}
	if out.params.Memory == 0 || out.params.Iterations == 0 || threads == 0 || threads > 255 {
		return phc{}, fmt.Errorf("%w: params out of range", ErrMalformedHash)
	}
	out.params.Threads = uint8(threads)
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return phc{}, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return phc{}, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	out.salt = salt
	out.key = key
	out.params.SaltLength = uint32(len(salt))
	out.params.KeyLength = uint32(len(key))
	return out, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// HashPassword hashes plaintext with DefaultParams.
func HashPassword(plain string) (string, error) {
	return NewHasher(DefaultParams).Hash(plain)
}

// ComparePassword reports whether plain matches the stored hash.
func ComparePassword(hash, plain string) (bool, error) {
	return NewHasher(DefaultParams).Verify(plain, hash)
}
