// Package crypto seals locally persisted secrets (the access token) with
// AES-256-GCM. A sealed value reads ENC[vN]:<base64 nonce||ciphertext>, N
// being the key version that sealed it.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

const sealedPrefix = "ENC[v"

var (
	ErrInvalidKey        = errors.New("sealing key must be 32 bytes")
	ErrInvalidCiphertext = errors.New("value is not a sealed string")
	ErrDecryptionFailed  = errors.New("sealed value cannot be opened with this key")
)

// Sealer encrypts values before they reach disk.
type Sealer struct {
	aead    cipher.AEAD
	version int
}

func NewSealer(key []byte, version int) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Sealer{aead: aead, version: version}, nil
}

func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	box := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	var b strings.Builder
	b.WriteString(sealedPrefix)
	b.WriteString(strconv.Itoa(s.version))
	b.WriteString("]:")
	b.WriteString(base64.StdEncoding.EncodeToString(box))
	return b.String(), nil
}

func (s *Sealer) Open(value string) (string, error) {
	_, payload, ok := splitSealed(value)
	if !ok {
		return "", ErrInvalidCiphertext
	}
	box, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	n := s.aead.NonceSize()
	if len(box) < n {
		return "", ErrInvalidCiphertext
	}
	plain, err := s.aead.Open(nil, box[:n], box[n:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

func (s *Sealer) Version() int { return s.version }

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// ParseVersion returns the key version of a sealed value, 0 when value is
// not sealed.
func ParseVersion(value string) int {
	v, _, ok := splitSealed(value)
	if !ok {
		return 0
	}
	return v
}

func splitSealed(value string) (version int, payload string, ok bool) {
	rest, found := strings.CutPrefix(value, sealedPrefix)
	if !found {
		return 0, "", false
	}
	num, payload, found := strings.Cut(rest, "]:")
	if !found {
		return 0, "", false
	}
	v, err := strconv.Atoi(num)
	if err != nil || v <= 0 {
		return 0, "", false
	}
	return v, payload, true
}
