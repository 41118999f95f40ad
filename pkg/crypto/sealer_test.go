package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestSealOpen(t *testing.T) {
	s, err := NewSealer(testKey(), 1)
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"theme", "dark"},
		{"token", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhbGljZSJ9.c2ln"},
		{"unicode", "中文測試"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := s.Seal(tt.plaintext)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if !strings.HasPrefix(sealed, "ENC[v1]:") {
				t.Errorf("sealed value missing prefix: %s", sealed)
			}
			opened, err := s.Open(sealed)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if opened != tt.plaintext {
				t.Errorf("opened = %q, want %q", opened, tt.plaintext)
			}
		})
	}
}

func TestSealRandomNonce(t *testing.T) {
	s, _ := NewSealer(testKey(), 1)
	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	if a == b {
		t.Error("expected different ciphertexts for same plaintext")
	}
}

func TestInvalidKey(t *testing.T) {
	if _, err := NewSealer([]byte("short"), 1); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestOpenWrongKey(t *testing.T) {
	a, _ := NewSealer(testKey(), 1)
	b, _ := NewSealer(make([]byte, KeySize), 1)
	sealed, _ := a.Seal("token")
	if _, err := b.Open(sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestOpenInvalid(t *testing.T) {
	s, _ := NewSealer(testKey(), 1)
	for _, v := range []string{"", "plain", "ENC[v1]:", "ENC[v1]:!!!"} {
		if _, err := s.Open(v); err == nil {
			t.Errorf("expected error for %q", v)
		}
	}
}

func TestParseVersion(t *testing.T) {
	cases := map[string]int{
		"ENC[v1]:data":  1,
		"ENC[v10]:data": 10,
		"invalid":       0,
		"ENC[vX]:data":  0,
	}
	for in, want := range cases {
		if got := ParseVersion(in); got != want {
			t.Errorf("ParseVersion(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLocalSealerPrefersEnv(t *testing.T) {
	t.Setenv(KeyEnv, base64.StdEncoding.EncodeToString(testKey()))
	orig := machineProtectedID
	machineProtectedID = func(string) (string, error) {
		t.Fatal("machine id should not be read when the env key is set")
		return "", nil
	}
	defer func() { machineProtectedID = orig }()

	s, err := LocalSealer("tradeforge")
	if err != nil {
		t.Fatalf("LocalSealer: %v", err)
	}
	ref, _ := NewSealer(testKey(), 1)
	sealed, _ := s.Seal("x")
	if got, err := ref.Open(sealed); err != nil || got != "x" {
		t.Fatalf("env key not used: %q %v", got, err)
	}
}

func TestMachineKey(t *testing.T) {
	t.Setenv(KeyEnv, "")
	orig := machineProtectedID
	machineProtectedID = func(appID string) (string, error) {
		return strings.Repeat("ab", KeySize), nil
	}
	defer func() { machineProtectedID = orig }()

	key, err := MachineKey("tradeforge")
	if err != nil || len(key) != KeySize || key[0] != 0xab {
		t.Fatalf("MachineKey = %x, %v", key, err)
	}
	if _, err := LocalSealer("tradeforge"); err != nil {
		t.Fatalf("LocalSealer: %v", err)
	}
}
