package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
)

// KeyEnv overrides the machine-derived key, e.g. in containers without a
// stable machine id.
const KeyEnv = "PREFS_ENCRYPTION_KEY"

var ErrKeyNotFound = errors.New("encryption key not found")

// machineProtectedID is swapped in tests.
var machineProtectedID = machineid.ProtectedID

// MachineKey derives a 32 byte key bound to this host and appID. The value is
// the HMAC-SHA256 of the machine id keyed by appID, so the raw id never
// leaves the host.
func MachineKey(appID string) ([]byte, error) {
	id, err := machineProtectedID(appID)
	if err != nil {
		return nil, fmt.Errorf("machine id: %w", err)
	}
	key, err := hex.DecodeString(id)
	if err != nil {
		return nil, fmt.Errorf("decode machine id: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// KeyFromEnv loads a base64 key from the named variable.
func KeyFromEnv(name string) ([]byte, error) {
	v := os.Getenv(name)
	if v == "" {
		return nil, ErrKeyNotFound
	}
	key, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("decode key %s: %w", name, err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// LocalSealer prefers the KeyEnv key and falls back to the machine key.
func LocalSealer(appID string) (*Sealer, error) {
	key, err := KeyFromEnv(KeyEnv)
	if errors.Is(err, ErrKeyNotFound) {
		key, err = MachineKey(appID)
	}
	if err != nil {
		return nil, err
	}
	return NewSealer(key, 1)
}
