package tunnel

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/yllada/wg-tunnels/common"
)

// Key is a Curve25519 private, public or preshared key.
type Key [common.KeyLength]byte

// ParseKey decodes a base64 encoded key as found in wg-quick files.
func ParseKey(s string) (Key, error) {
	var k Key
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	if len(raw) != len(k) {
		return k, fmt.Errorf("%w: got %d bytes, want %d", common.ErrInvalidKey, len(raw), len(k))
	}
	copy(k[:], raw)
	return k, nil
}

// GeneratePrivateKey returns a new clamped Curve25519 private key.
func GeneratePrivateKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return k, fmt.Errorf("failed to read random bytes: %w", err)
	}
	k[0] &= 248
	k[31] = (k[31] & 127) | 64
	return k, nil
}

// String returns the base64 encoding of the key.
func (k Key) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// IsZero reports whether the key is all zeros.
func (k Key) IsZero() bool {
	var zero Key
	return k == zero
}

// PublicKey derives the public key from a private key.
func (k Key) PublicKey() (Key, error) {
	var pub Key
	out, err := curve25519.X25519(k[:], curve25519.Basepoint)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	copy(pub[:], out)
	return pub, nil
}
