// Package keyring provides secure storage for tunnel private keys.
// It uses the system keyring when available, falling back to an
// encrypted local file when not.
package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/yllada/wg-tunnels/common"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = common.AppID
	checkKey    = "wg-tunnels-check"
)

// Common errors returned by keyring operations.
var (
	ErrNotFound = common.ErrSecretNotFound
	ErrEmptyKey = errors.New("tunnel name cannot be empty")
)

// Keyring stores one secret per tunnel name.
type Keyring struct {
	system   bool
	fallback *FileBackend
}

// New checks the system keyring and returns a Keyring that uses it, or an
// encrypted file at fallbackPath when the system keyring is unavailable.
func New(fallbackPath string) (*Keyring, error) {
	err := keyring.Set(serviceName, checkKey, "check")
	if err == nil {
		_ = keyring.Delete(serviceName, checkKey)
		return &Keyring{system: true}, nil
	}
	common.LogDebug("System keyring unavailable, using %s: %v", fallbackPath, err)

	fb, err := NewFileBackend(fallbackPath, machineKey())
	if err != nil {
		return nil, err
	}
	return &Keyring{fallback: fb}, nil
}

// UsesSystemKeyring reports whether secrets go to the system keyring.
func (k *Keyring) UsesSystemKeyring() bool {
	return k.system
}

// Store saves the secret for a tunnel.
func (k *Keyring) Store(tunnelName, secret string) error {
	if tunnelName == "" {
		return ErrEmptyKey
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	if !k.system {
		return k.fallback.Store(tunnelName, secret)
	}
	if err := keyring.Set(serviceName, tunnelName, secret); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSecretStorage, err)
	}
	return nil
}

// Get retrieves the secret for a tunnel.
func (k *Keyring) Get(tunnelName string) (string, error) {
	if tunnelName == "" {
		return "", ErrEmptyKey
	}
	if !k.system {
		return k.fallback.Get(tunnelName)
	}
	secret, err := keyring.Get(serviceName, tunnelName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return secret, nil
}

// Delete removes the secret for a tunnel. Deleting a missing secret is not an error.
func (k *Keyring) Delete(tunnelName string) error {
	if tunnelName == "" {
		return ErrEmptyKey
	}
	if !k.system {
		return k.fallback.Delete(tunnelName)
	}
	if err := keyring.Delete(serviceName, tunnelName); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// Exists checks if a secret exists for a tunnel.
func (k *Keyring) Exists(tunnelName string) bool {
	_, err := k.Get(tunnelName)
	return err == nil
}

// FileBackend keeps secrets in a file sealed with XChaCha20-Poly1305.
type FileBackend struct {
	mu      sync.RWMutex
	path    string
	key     []byte
	secrets map[string]string
}

// NewFileBackend opens or creates the encrypted secrets file at path.
// key must be chacha20poly1305.KeySize bytes long.
func NewFileBackend(path string, key []byte) (*FileBackend, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", common.ErrEncryption, chacha20poly1305.KeySize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create secrets directory: %w", err)
	}

	fb := &FileBackend{
		path:    path,
		key:     key,
		secrets: make(map[string]string),
	}
	if err := fb.load(); err != nil {
		return nil, err
	}
	return fb, nil
}

func (fb *FileBackend) load() error {
	data, err := os.ReadFile(fb.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read secrets file: %w", err)
	}

	plaintext, err := fb.decrypt(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, &fb.secrets); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return nil
}

// save must be called with fb.mu held.
func (fb *FileBackend) save() error {
	data, err := json.Marshal(fb.secrets)
	if err != nil {
		return err
	}

	sealed, err := fb.encrypt(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(fb.path, sealed, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSecretStorage, err)
	}
	return nil
}

func (fb *FileBackend) encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(fb.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}

	ciphertext := aead.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (fb *FileBackend) decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}

	aead, err := chacha20poly1305.NewX(fb.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	nonce, ciphertext := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}

// Store saves the secret for a tunnel.
func (fb *FileBackend) Store(tunnelName, secret string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.secrets[tunnelName] = secret
	return fb.save()
}

// Get retrieves the secret for a tunnel.
func (fb *FileBackend) Get(tunnelName string) (string, error) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	secret, ok := fb.secrets[tunnelName]
	if !ok {
		return "", ErrNotFound
	}
	return secret, nil
}

// Delete removes the secret for a tunnel.
func (fb *FileBackend) Delete(tunnelName string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, ok := fb.secrets[tunnelName]; !ok {
		return nil
	}
	delete(fb.secrets, tunnelName)
	return fb.save()
}

// machineKey derives the fallback file key from machine-specific data.
func machineKey() []byte {
	hostname, _ := os.Hostname()
	keyData := fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, machineID(), os.Getuid())
	sum := sha256.Sum256([]byte(keyData))
	return sum[:]
}

func machineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	return "default-machine-id"
}
