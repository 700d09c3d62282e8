package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash is returned by Verify when the stored hash is malformed or
// uses an unsupported algorithm or version. Callers must treat this as a
// corrupt record, not as a wrong password.
var ErrInvalidHash = errors.New("invalid password hash")

// Argon2idParams tunes the Argon2id hasher. Memory is in KiB.
type Argon2idParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams returns the OWASP-recommended baseline:
// 19 MiB memory, 2 passes, parallelism 1.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Memory:      19456,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies passwords using Argon2id. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	params Argon2idParams
}

// NewHasher returns a Hasher with the given parameters. Zero or undersized
// fields are raised to the defaults so a partially filled struct cannot weaken
// hashing below the baseline.
func NewHasher(p Argon2idParams) *Hasher {
	def := DefaultArgon2idParams()
	if p.Memory < 8*1024 {
		p.Memory = def.Memory
	}
	if p.Time == 0 {
		p.Time = def.Time
	}
	if p.Parallelism == 0 {
		p.Parallelism = def.Parallelism
	}
	if p.SaltLength < 16 {
		p.SaltLength = def.SaltLength
	}
	if p.KeyLength < 16 {
		p.KeyLength = def.KeyLength
	}
	return &Hasher{params: p}
}

// Hash produces a PHC-encoded Argon2id hash of password with a fresh random
// salt, so two hashes of the same input differ byte-for-byte.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against a PHC-encoded hash. It returns (false, nil)
// on mismatch and (false, ErrInvalidHash) when the hash cannot be parsed;
// the two outcomes must not be conflated. Hash parameters are taken from the
// encoded string so old hashes keep verifying after a parameter upgrade.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	p, salt, key, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func decodePHC(encoded string) (Argon2idParams, []byte, []byte, error) {
	var p Argon2idParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrInvalidHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < 16 {
		return p, nil, nil, ErrInvalidHash
	}

	return p, salt, key, nil
}
