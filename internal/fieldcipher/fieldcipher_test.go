package fieldcipher

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func newTestCipher(t *testing.T, secret []byte) *Cipher {
	t.Helper()
	c, err := New(secret)
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCipher(t, bytes.Repeat([]byte{7}, KeySize))

	for _, plain := range []string{"a", "Jane Doe", "jane@example.com", "+91 98765 43210", "Zürich 東京 🚀"} {
		sealed, err := c.Encrypt(plain)
		if err != nil {
			t.Fatalf("encrypt %q: %v", plain, err)
		}
		if sealed == plain {
			t.Fatalf("expected %q to be sealed", plain)
		}
		if _, err := base64.StdEncoding.DecodeString(sealed); err != nil {
			t.Fatalf("ciphertext is not base64: %v", err)
		}
		if got := c.Decrypt(sealed); got != plain {
			t.Fatalf("round trip: got %q, want %q", got, plain)
		}
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c := newTestCipher(t, []byte("a passphrase that is not 32 bytes"))
	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	if a == b {
		t.Fatal("expected distinct ciphertexts for repeated plaintext")
	}
}

func TestEmptyStringPassesThrough(t *testing.T) {
	c := newTestCipher(t, []byte("secret"))
	sealed, err := c.Encrypt("")
	if err != nil || sealed != "" {
		t.Fatalf("Encrypt(\"\") = %q, %v", sealed, err)
	}
	if got := c.Decrypt(""); got != "" {
		t.Fatalf("Decrypt(\"\") = %q", got)
	}
}

func TestDecryptFallsBackToInput(t *testing.T) {
	c := newTestCipher(t, []byte("secret"))
	other := newTestCipher(t, []byte("another secret"))
	foreign, _ := other.Encrypt("hidden")

	garbage := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 40))
	for _, in := range []string{"not base64 !!", "John", garbage, foreign, "c2hvcnQ="} {
		got, ok := c.Open(in)
		if ok {
			t.Fatalf("expected %q to fail decryption", in)
		}
		if got != in {
			t.Fatalf("expected fallback to input %q, got %q", in, got)
		}
	}
}

func TestNewRejectsEmptySecret(t *testing.T) {
	if _, err := New(nil); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestSealAndOpenRecord(t *testing.T) {
	c := newTestCipher(t, []byte("secret"))
	fields := NewFieldSet("first_name", "Email_ID")

	record := map[string]any{
		"first_name":     "Jane",
		"Email_ID":       "",
		"Meeting_Status": "new",
		"score":          42,
	}
	if err := c.SealRecord(record, fields); err != nil {
		t.Fatalf("seal: %v", err)
	}
	if record["first_name"] == "Jane" {
		t.Fatal("expected first_name to be sealed")
	}
	if record["Meeting_Status"] != "new" || record["score"] != 42 || record["Email_ID"] != "" {
		t.Fatalf("non-listed or empty fields must stay in clear: %v", record)
	}

	record["Email_ID"] = "legacy-plaintext"
	if fallbacks := c.OpenRecord(record, fields); fallbacks != 1 {
		t.Fatalf("expected 1 fallback, got %d", fallbacks)
	}
	if record["first_name"] != "Jane" || record["Email_ID"] != "legacy-plaintext" {
		t.Fatalf("unexpected opened record %v", record)
	}
}
