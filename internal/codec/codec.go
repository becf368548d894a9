// Package codec encrypts and decrypts partition payloads under a
// user-supplied passphrase. The passphrase is hashed to a fixed-size key;
// no key strengthening is attempted. AES-GCM authenticates the ciphertext,
// so decrypting with the wrong passphrase fails instead of yielding noise.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// deriveKey always yields a 32-byte key regardless of passphrase length.
func deriveKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// Encrypt seals plaintext under the given key and returns base64
// nonce+ciphertext. An empty key is the locked state: the plaintext is
// returned unchanged.
func Encrypt(plaintext, key string) (string, error) {
	if key == "" {
		return plaintext, nil
	}

	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	sealed := aesgcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure (wrong key, corrupt data, input
// that never was ciphertext) comes back as an error; callers treat it as
// "could not decrypt" and fall back, never as fatal. An empty key returns
// the input unchanged, mirroring Encrypt.
func Decrypt(ciphertext, key string) (string, error) {
	if key == "" {
		return ciphertext, nil
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	ns := aesgcm.NonceSize()
	if len(data) < ns {
		return "", fmt.Errorf("cipher too short")
	}
	nonce, sealed := data[:ns], data[ns:]

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// IsLikelyJSON reports whether s parses as JSON. Legacy partitions written
// before encryption existed hold raw JSON; ciphertext does not parse. This
// is the only migration signal available for pre-encryption data.
func IsLikelyJSON(s string) bool {
	return json.Valid([]byte(s))
}
