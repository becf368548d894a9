package codec

import (
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		key  string
	}{
		{"simple", "hello", "pw"},
		{"json payload", `[{"id":"1","amount":1250}]`, "master-password"},
		{"empty string", "", "pw"},
		{"unicode", "caffè 12,50 €", "pw"},
		{"long", strings.Repeat("x", 64*1024), "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sealed, err := Encrypt(tc.in, tc.key)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			if sealed == tc.in && tc.in != "" {
				t.Fatalf("ciphertext equals plaintext")
			}
			got, err := Decrypt(sealed, tc.key)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if got != tc.in {
				t.Fatalf("round trip mismatch: got %q", got)
			}
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	sealed, err := Encrypt(`{"secret":true}`, "right")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(sealed, "wrong"); err == nil {
		t.Fatal("expected error decrypting with wrong key")
	}
}

func TestDecryptGarbage(t *testing.T) {
	cases := []string{
		"not ciphertext at all",
		"AAAA",
		"",
		`{"plain":"json"}`,
	}
	for _, in := range cases {
		if _, err := Decrypt(in, "pw"); err == nil {
			t.Errorf("Decrypt(%q) expected error", in)
		}
	}
}

func TestEmptyKeyPassThrough(t *testing.T) {
	const in = `{"legacy":true}`
	sealed, err := Encrypt(in, "")
	if err != nil || sealed != in {
		t.Fatalf("Encrypt with empty key = %q, %v; want pass-through", sealed, err)
	}
	got, err := Decrypt(in, "")
	if err != nil || got != in {
		t.Fatalf("Decrypt with empty key = %q, %v; want pass-through", got, err)
	}
}

func TestEncryptNotDeterministic(t *testing.T) {
	// Fresh nonce per call: identical inputs must not produce identical output.
	a, _ := Encrypt("same", "pw")
	b, _ := Encrypt("same", "pw")
	if a == b {
		t.Fatal("two encryptions of the same plaintext are identical")
	}
}

func TestIsLikelyJSON(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`{}`, true},
		{`[]`, true},
		{`[{"id":"1"}]`, true},
		{`"bare string"`, true},
		{`42`, true},
		{``, false},
		{`U2FsdGVkX1+abc123`, false},
		{`{"truncated":`, false},
	}
	for _, tc := range cases {
		if got := IsLikelyJSON(tc.in); got != tc.want {
			t.Errorf("IsLikelyJSON(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
