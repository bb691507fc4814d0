package encryption

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"phototidy/internal/config"
)

func newTestAgeEncryptor(t *testing.T) (*AgeEncryptor, config.EncryptionConfig) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "keys", "phototidy.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "phototidy.key"),
	}
	return NewAgeEncryptor(cfg), cfg
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e, cfg := newTestAgeEncryptor(t)

	if e.IsConfigured() {
		t.Fatal("IsConfigured() = true before Setup")
	}
	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup")
	}

	info, err := os.Stat(cfg.PrivateKeyPath)
	if err != nil {
		t.Fatalf("stat private key: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}

	err = e.Setup("another")
	if !errors.Is(err, ErrKeysExist) {
		t.Errorf("second Setup() error = %v, want ErrKeysExist", err)
	}
}

func TestAgeEncryptor_SetupRejectsEmptyPassphrase(t *testing.T) {
	t.Parallel()
	e, _ := newTestAgeEncryptor(t)
	if err := e.Setup(""); err == nil {
		t.Error("Setup(\"\") expected error")
	}
	if e.IsConfigured() {
		t.Error("keys written despite rejected passphrase")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "sqlite header", input: append([]byte("SQLite format 3\x00"), make([]byte, 4096)...)},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 100000)},
	}

	passphrase := "test-passphrase"
	e, cfg := newTestAgeEncryptor(t)
	if err := e.Setup(passphrase); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sealed bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(sealed.Bytes(), ageMagic) {
				t.Error("sealed output lacks the age header")
			}

			// a fresh encryptor over the same key files must open it
			ctx, err := NewAgeEncryptor(cfg).Unlock(passphrase)
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var plain bytes.Buffer
			if err := ctx.Decrypt(&sealed, &plain); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(plain.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", plain.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_UnlockWrongPassphrase(t *testing.T) {
	t.Parallel()
	e, _ := newTestAgeEncryptor(t)
	if err := e.Setup("correct-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := e.Unlock("wrong-passphrase"); err == nil {
		t.Error("Unlock() with wrong passphrase should return error")
	}
}

func TestAgeEncryptor_BeforeSetup(t *testing.T) {
	t.Parallel()
	e, _ := newTestAgeEncryptor(t)

	var buf bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("data")), &buf); err == nil {
		t.Error("Encrypt() before Setup should return error")
	}
	if _, err := e.Unlock("passphrase"); err == nil {
		t.Error("Unlock() before Setup should return error")
	}
}

func TestIsSealed(t *testing.T) {
	t.Parallel()
	e, _ := newTestAgeEncryptor(t)
	if err := e.Setup("pw"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	dir := t.TempDir()

	var sealed bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("db bytes")), &sealed); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	files := map[string][]byte{
		"sealed.age": sealed.Bytes(),
		"plain.db":   []byte("SQLite format 3\x00 and then some more bytes"),
		"tiny":       []byte("x"),
	}
	want := map[string]bool{"sealed.age": true, "plain.db": false, "tiny": false}

	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := IsSealed(path)
		if err != nil {
			t.Fatalf("IsSealed(%s) error = %v", name, err)
		}
		if got != want[name] {
			t.Errorf("IsSealed(%s) = %v, want %v", name, got, want[name])
		}
	}

	if _, err := IsSealed(filepath.Join(dir, "absent")); err == nil {
		t.Error("IsSealed() on missing file should return error")
	}
}

func TestNoneEncryptor(t *testing.T) {
	t.Parallel()
	e := NewNoneEncryptor()

	if !e.IsConfigured() {
		t.Error("IsConfigured() = false")
	}
	if err := e.Setup("pw"); err == nil {
		t.Error("Setup() should refuse when encryption is disabled")
	}

	var out bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("plain")), &out); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	ctx, _ := e.Unlock("")
	var back bytes.Buffer
	if err := ctx.Decrypt(&out, &back); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if back.String() != "plain" {
		t.Errorf("round trip = %q, want %q", back.String(), "plain")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		wantErr bool
	}{
		{"age", config.EncryptionConfig{Type: "age", PublicKeyPath: "/k.pub", PrivateKeyPath: "/k.key"}, false},
		{"default is age", config.EncryptionConfig{PublicKeyPath: "/k.pub", PrivateKeyPath: "/k.key"}, false},
		{"age without paths", config.EncryptionConfig{Type: "age"}, true},
		{"none", config.EncryptionConfig{Type: "none"}, false},
		{"unknown", config.EncryptionConfig{Type: "rot13"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got == nil {
				t.Error("NewEncryptorFromConfig() returned nil")
			}
		})
	}
}
