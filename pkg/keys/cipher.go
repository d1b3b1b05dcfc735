// Package keys is the signing boundary: it seals generated private keys under
// a master key and resolves opaque key handles into key material.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	masterKeySize = 32
	maxSecretSize = 256

	receiveKeyInfo = "custody-ledger/receive-keys/v1"
)

// KeyCipher seals and opens private key material for storage.
type KeyCipher interface {
	Encrypt(secret []byte) (string, error)
	Decrypt(sealed string) ([]byte, error)
}

type masterKeyCipher struct {
	key []byte
}

// NewMasterKeyCipher derives a dedicated AES-256 key from masterKey with HKDF
// so the master key itself never encrypts data directly.
func NewMasterKeyCipher(masterKey []byte) (KeyCipher, error) {
	if len(masterKey) != masterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes (AES-256)", masterKeySize)
	}
	derived := make([]byte, masterKeySize)
	r := hkdf.New(sha256.New, masterKey, nil, []byte(receiveKeyInfo))
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, fmt.Errorf("failed to derive cipher key: %w", err)
	}
	return &masterKeyCipher{key: derived}, nil
}

func (c *masterKeyCipher) Encrypt(secret []byte) (string, error) {
	return EncryptPrivateKey(secret, c.key)
}

func (c *masterKeyCipher) Decrypt(sealed string) ([]byte, error) {
	return DecryptPrivateKey(sealed, c.key)
}

// EncryptPrivateKey encrypts the private key using AES-256-GCM with the provided key.
// Returns the encrypted key as a base64-encoded string containing: nonce || ciphertext || tag
func EncryptPrivateKey(privateKey []byte, key []byte) (string, error) {
	if len(key) != masterKeySize {
		return "", fmt.Errorf("master key must be %d bytes (AES-256)", masterKeySize)
	}
	if len(privateKey) == 0 || len(privateKey) > maxSecretSize {
		return "", fmt.Errorf("private key must be between 1 and %d bytes", maxSecretSize)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	// Generate random nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, privateKey, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptPrivateKey decrypts an encrypted private key using AES-256-GCM.
// The encrypted string should be base64-encoded containing: nonce || ciphertext || tag
func DecryptPrivateKey(encrypted string, key []byte) ([]byte, error) {
	if len(key) != masterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes (AES-256)", masterKeySize)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// GenerateMasterKey generates a new random 32-byte master key.
// This should be stored securely (environment variable, secrets manager, etc.)
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// MasterKeyFromBase64 decodes a base64-encoded master key
func MasterKeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) != masterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", masterKeySize, len(key))
	}
	return key, nil
}

// MasterKeyToBase64 encodes a master key as base64 for storage
func MasterKeyToBase64(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
