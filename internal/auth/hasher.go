package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrUnsupportedHash = errors.New("unsupported password hash format")

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

var (
	_ PasswordHasher = (*Argon2Hasher)(nil)
	_ PasswordHasher = SHA256Hasher{}
)

const argon2Prefix = "$argon2id$"

// Argon2Hasher produces salted argon2id hashes in the PHC string format.
type Argon2Hasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (a *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (a *Argon2Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decodeArgon2(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeArgon2(encoded string) (*Argon2Hasher, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrUnsupportedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid argon2 version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrUnsupportedHash
	}

	params := &Argon2Hasher{}
	var p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &p); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid argon2 parameters: %w", err)
	}
	params.Parallelism = uint8(p)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid argon2 salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid argon2 key: %w", err)
	}
	params.KeyLength = uint32(len(key))
	return params, salt, key, nil
}

// SHA256Hasher is the legacy unsalted hex digest. An optional pepper is
// prefixed as "pepper:password"; with no pepper the digest matches rows
// written by earlier deployments.
type SHA256Hasher struct {
	Pepper string
}

func (h SHA256Hasher) Hash(password string) (string, error) {
	input := password
	if h.Pepper != "" {
		input = h.Pepper + ":" + password
	}
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(password, encoded string) (bool, error) {
	if !isSHA256Hex(encoded) {
		return false, ErrUnsupportedHash
	}
	candidate, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(strings.ToLower(encoded))) == 1, nil
}

func isSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// MultiHasher hashes with Primary and verifies any format it recognises, so
// rows written by the legacy digest keep working after a switch to argon2id.
type MultiHasher struct {
	Primary PasswordHasher
	Argon2  *Argon2Hasher
	SHA256  SHA256Hasher
}

func (m MultiHasher) Hash(password string) (string, error) {
	return m.Primary.Hash(password)
}

func (m MultiHasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return m.Argon2.Verify(password, encoded)
	case isSHA256Hex(encoded):
		return m.SHA256.Verify(password, encoded)
	default:
		return false, ErrUnsupportedHash
	}
}

// NewHasher returns the hasher for the configured algorithm name.
func NewHasher(algorithm, pepper string) (PasswordHasher, error) {
	argon := NewArgon2Hasher()
	legacy := SHA256Hasher{Pepper: pepper}
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", "argon2id":
		return MultiHasher{Primary: argon, Argon2: argon, SHA256: legacy}, nil
	case "sha256":
		return MultiHasher{Primary: legacy, Argon2: argon, SHA256: legacy}, nil
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
}
