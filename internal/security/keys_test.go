package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPEM_Inline(t *testing.T) {
	b, err := LoadPEM("  " + testPublicKeyPEM + "\n")
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if !strings.HasPrefix(string(b), "-----BEGIN PUBLIC KEY-----") {
		t.Errorf("LoadPEM did not return PEM content: %q", b[:20])
	}
}

func TestLoadPEM_LiteralNewlines(t *testing.T) {
	flat := strings.ReplaceAll(testPublicKeyPEM, "\n", `\n`)
	pub, err := ParsePublicKey(flat)
	if err != nil {
		t.Fatalf("ParsePublicKey with literal \\n: %v", err)
	}
	if KeyAlg(pub) != "RS256" {
		t.Errorf("KeyAlg = %q, want RS256", KeyAlg(pub))
	}
}

func TestLoadPEM_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt.pub")
	if err := os.WriteFile(path, []byte(testPublicKeyPEM), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ParsePublicKey(path); err != nil {
		t.Fatalf("ParsePublicKey(file): %v", err)
	}
}

func TestLoadPEM_Errors(t *testing.T) {
	if _, err := LoadPEM("   "); err != ErrInvalidKey {
		t.Errorf("LoadPEM(blank) err = %v, want ErrInvalidKey", err)
	}
	if _, err := LoadPEM(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("LoadPEM(missing file) should fail")
	}
}

func TestParseKeys(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if KeyAlg(signer.Public()) != "RS256" {
		t.Errorf("private key alg = %q", KeyAlg(signer.Public()))
	}

	if _, err := ParsePublicKey(testPrivateKeyPEM); err != ErrInvalidKey {
		t.Errorf("ParsePublicKey(private PEM) err = %v, want ErrInvalidKey", err)
	}
	if _, err := ParsePrivateKey(testPublicKeyPEM); err != ErrInvalidKey {
		t.Errorf("ParsePrivateKey(public PEM) err = %v, want ErrInvalidKey", err)
	}
	if _, err := ParsePublicKey("-----BEGIN PUBLIC KEY-----\nnot base64\n-----END PUBLIC KEY-----"); err == nil {
		t.Error("ParsePublicKey(garbage) should fail")
	}
}

func TestKeyAlg_Unsupported(t *testing.T) {
	if got := KeyAlg("nope"); got != "" {
		t.Errorf("KeyAlg = %q, want empty", got)
	}
}
