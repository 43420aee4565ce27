package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
)

const (
	envelopeID    = "__encrypted__"
	envelopeType  = "encrypted"
	envelopeField = "ciphertext"
)

// ErrNotEncrypted is returned when a stored flow has no encrypted envelope.
var ErrNotEncrypted = errors.New("flow is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.FlowStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts whole flows using
// AES-GCM. The wrapped store only ever sees a single envelope definition.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	return func(next ports.FlowStore) ports.FlowStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, flowID string, defs []domain.Definition) error {
	plainText, err := json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt flow: %w", err)
	}

	envelope := domain.Definition{
		domain.FieldID:   envelopeID,
		domain.FieldType: envelopeType,
		envelopeField:    base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Save(ctx, flowID, []domain.Definition{envelope})
}

func (m *encryptionMiddleware) Load(ctx context.Context, flowID string) ([]domain.Definition, error) {
	stored, err := m.next.Load(ctx, flowID)
	if err != nil {
		return nil, err
	}

	// Plain flows are refused rather than passed through.
	if len(stored) != 1 || stored[0].ID() != envelopeID {
		return nil, fmt.Errorf("%s: %w", flowID, ErrNotEncrypted)
	}
	encoded := stored[0].String(envelopeField)
	if encoded == "" {
		return nil, fmt.Errorf("%s: %w", flowID, ErrNotEncrypted)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt flow %s: %w", flowID, err)
	}

	dec := json.NewDecoder(bytes.NewReader(plainText))
	dec.UseNumber()
	var defs []domain.Definition
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted flow: %w", err)
	}
	return defs, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, flowID string) error {
	return m.next.Delete(ctx, flowID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
