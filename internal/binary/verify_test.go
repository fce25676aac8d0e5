package binary

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// signingFixture writes an archive, its armored detached signature and the
// armored public key of the signer into dir.
func signingFixture(t *testing.T, dir string, data []byte) (archive, signature, keyring string) {
	t.Helper()

	entity, err := openpgp.NewEntity("Test Signer", "", "signer@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("serialize key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close armor: %v", err)
	}

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(data), nil); err != nil {
		t.Fatalf("sign: %v", err)
	}

	archive = filepath.Join(dir, "butler.zip")
	signature = archive + ".sig"
	keyring = filepath.Join(dir, "butler.asc")
	for path, content := range map[string][]byte{archive: data, signature: sig.Bytes(), keyring: pub.Bytes()} {
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return archive, signature, keyring
}

func TestVerifyGPG(t *testing.T) {
	tmpDir := t.TempDir()
	archive, signature, keyring := signingFixture(t, tmpDir, []byte("archive bytes"))

	t.Run("valid_signature", func(t *testing.T) {
		result, err := NewVerifier(keyring).VerifyFile(archive, signature, "")
		if err != nil {
			t.Fatalf("VerifyFile() error = %v", err)
		}
		if result.Method != VerificationGPG || !result.Success {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("tampered_archive", func(t *testing.T) {
		tampered := filepath.Join(tmpDir, "tampered.zip")
		if err := os.WriteFile(tampered, []byte("archive bytes!"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewVerifier(keyring).VerifyFile(tampered, signature, ""); err == nil {
			t.Error("expected signature mismatch")
		}
	})

	t.Run("missing_signature_file", func(t *testing.T) {
		if _, err := NewVerifier(keyring).VerifyFile(archive, filepath.Join(tmpDir, "nope.sig"), ""); err == nil {
			t.Error("expected error for missing signature")
		}
	})

	t.Run("missing_keyring", func(t *testing.T) {
		if _, err := NewVerifier(filepath.Join(tmpDir, "nope.asc")).VerifyFile(archive, signature, ""); err == nil {
			t.Error("expected error for missing keyring")
		}
	})
}

func TestVerifySHA256(t *testing.T) {
	tmpDir := t.TempDir()
	data := []byte("archive bytes")
	archive := filepath.Join(tmpDir, "butler.zip")
	if err := os.WriteFile(archive, data, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		contents string
		wantErr  bool
	}{
		{"named_entry", sha256Hex(data) + "  butler.zip\n", false},
		{"binary_mode_entry", sha256Hex(data) + " *butler.zip\n", false},
		{"uppercase_hash", strings.ToUpper(sha256Hex(data)) + "  butler.zip\n", false},
		{"path_entry", sha256Hex(data) + "  dist/butler.zip\n", false},
		{"bare_hash", sha256Hex(data) + "\n", false},
		{"mismatch", sha256Hex([]byte("other")) + "  butler.zip\n", true},
		{"not_listed", sha256Hex(data) + "  other.zip\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checksumPath := filepath.Join(tmpDir, tt.name+".sha256")
			if err := os.WriteFile(checksumPath, []byte(tt.contents), 0644); err != nil {
				t.Fatal(err)
			}

			result, err := NewVerifier("").VerifyFile(archive, "", checksumPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifyFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && result.Method != VerificationSHA256 {
				t.Errorf("Method = %v, want SHA256", result.Method)
			}
		})
	}
}

func TestVerifyFile_NoSources(t *testing.T) {
	result, err := NewVerifier("").VerifyFile("butler.zip", "", "")
	if err != nil {
		t.Fatalf("VerifyFile() error = %v", err)
	}
	if result.Method != VerificationNone {
		t.Errorf("Method = %v, want None", result.Method)
	}
}

func TestVerifyFile_SignatureWithoutKeyringFallsBack(t *testing.T) {
	tmpDir := t.TempDir()
	data := []byte("archive bytes")
	archive := filepath.Join(tmpDir, "butler.zip")
	checksum := filepath.Join(tmpDir, "butler.zip.sha256")
	os.WriteFile(archive, data, 0644)
	os.WriteFile(checksum, []byte(sha256Hex(data)+"  butler.zip\n"), 0644)

	result, err := NewVerifier("").VerifyFile(archive, archive+".sig", checksum)
	if err != nil {
		t.Fatalf("VerifyFile() error = %v", err)
	}
	if result.Method != VerificationSHA256 {
		t.Errorf("Method = %v, want SHA256", result.Method)
	}
}

func TestVerificationMethodString(t *testing.T) {
	tests := []struct {
		method VerificationMethod
		want   string
	}{
		{VerificationNone, "None"},
		{VerificationGPG, "GPG"},
		{VerificationSHA256, "SHA256"},
		{VerificationMethod(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.method.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
