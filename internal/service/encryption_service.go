package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const gcmTagSize = 16

// AESEncryptionService implements ports.EncryptionService using AES-256-GCM.
// Each blob is sealed under a data key derived from the master key with
// HKDF-SHA256, using the binding as HKDF info and as GCM additional data.
type AESEncryptionService struct {
	masterKey []byte
}

// NewAESEncryptionService creates a new AES-256-GCM encryption service.
// masterKey must be 32 bytes.
func NewAESEncryptionService(masterKey []byte) (*AESEncryptionService, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(masterKey))
	}
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	return &AESEncryptionService{masterKey: key}, nil
}

// Seal encrypts plaintext and returns "nonce:authTag:ciphertext", each part
// hex-encoded.
func (s *AESEncryptionService) Seal(plaintext []byte, binding string) (string, error) {
	aesGCM, err := s.cipherFor(binding)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aesGCM.Seal(nil, nonce, plaintext, []byte(binding))
	ciphertext, tag := sealed[:len(sealed)-gcmTagSize], sealed[len(sealed)-gcmTagSize:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Open reverses Seal. It fails if the blob was sealed under another binding.
func (s *AESEncryptionService) Open(blob string, binding string) ([]byte, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed key blob: expected 3 parts, got %d", len(parts))
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("decoding nonce: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decoding auth tag: %w", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}

	aesGCM, err := s.cipherFor(binding)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesGCM.NonceSize() || len(tag) != gcmTagSize {
		return nil, fmt.Errorf("malformed key blob: bad nonce or tag length")
	}

	plaintext, err := aesGCM.Open(nil, nonce, append(ciphertext, tag...), []byte(binding))
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plaintext, nil
}

func (s *AESEncryptionService) cipherFor(binding string) (cipher.AEAD, error) {
	dataKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.masterKey, nil, []byte(binding)), dataKey); err != nil {
		return nil, fmt.Errorf("deriving data key: %w", err)
	}
	defer zero(dataKey)

	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aesGCM, nil
}

// zero overwrites b in place.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
