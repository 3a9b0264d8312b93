package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSaltUnique(t *testing.T) {
	a, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	b, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	if len(a) != saltSize {
		t.Errorf("salt length = %d, want %d", len(a), saltSize)
	}
	if bytes.Equal(a, b) {
		t.Error("two generated salts are identical")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}

	k1 := DeriveKey("passphrase", salt)
	k2 := DeriveKey("passphrase", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt derived different keys")
	}
	if len(k1) != keySize {
		t.Errorf("key length = %d, want %d", len(k1), keySize)
	}

	other := DeriveKey("other passphrase", salt)
	if bytes.Equal(k1, other) {
		t.Error("different passphrases derived the same key")
	}
}

func TestEncryptDecryptFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	dec := filepath.Join(dir, "restored.db")

	original := []byte("SQLite format 3\x00 with some table data")
	if err := os.WriteFile(src, original, 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := EncryptFile(src, enc, "passphrase"); err != nil {
		t.Fatalf("EncryptFile() error = %v", err)
	}

	sealed, err := os.ReadFile(enc)
	if err != nil {
		t.Fatalf("reading encrypted file: %v", err)
	}
	if bytes.Contains(sealed, []byte("table data")) {
		t.Error("encrypted file contains plaintext")
	}

	if err := DecryptFile(enc, dec, "passphrase"); err != nil {
		t.Fatalf("DecryptFile() error = %v", err)
	}
	restored, err := os.ReadFile(dec)
	if err != nil {
		t.Fatalf("reading decrypted file: %v", err)
	}
	if !bytes.Equal(restored, original) {
		t.Error("decrypted content does not match the original")
	}

	if err := DecryptFile(enc, dec, "wrong"); err == nil {
		t.Error("DecryptFile() with the wrong passphrase should fail")
	}
}
