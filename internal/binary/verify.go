package binary

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier handles cryptographic verification of downloads
type Verifier struct {
	// keyringPath is an armored or binary public keyring. Empty disables GPG.
	keyringPath string
}

// NewVerifier creates a new verifier
func NewVerifier(keyringPath string) *Verifier {
	return &Verifier{keyringPath: keyringPath}
}

// VerifyFile verifies a downloaded archive. A signature is checked when one
// was downloaded and a keyring is configured; otherwise a checksum file is
// used; with neither the result is VerificationNone.
func (v *Verifier) VerifyFile(archivePath, signaturePath, checksumPath string) (*VerificationResult, error) {
	if signaturePath != "" && v.keyringPath != "" {
		result, err := v.verifyGPG(archivePath, signaturePath)
		if err != nil {
			return nil, fmt.Errorf("GPG verification failed: %w", err)
		}
		return result, nil
	}

	if checksumPath != "" {
		result, err := v.verifySHA256(archivePath, checksumPath)
		if err != nil {
			return nil, fmt.Errorf("SHA256 verification failed: %w", err)
		}
		return result, nil
	}

	return &VerificationResult{Method: VerificationNone, Success: true}, nil
}

// verifyGPG verifies a file using a detached GPG signature
func (v *Verifier) verifyGPG(archivePath, signaturePath string) (*VerificationResult, error) {
	keyring, err := loadKeyring(v.keyringPath)
	if err != nil {
		return nil, fmt.Errorf("load keyring: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return nil, fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	// Try armored first
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archiveFile, sigFile, nil)
	if err != nil {
		if _, seekErr := archiveFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, seekErr
		}
		if _, seekErr := sigFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, seekErr
		}
		_, err = openpgp.CheckDetachedSignature(keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}

	return &VerificationResult{Method: VerificationGPG, Success: true}, nil
}

// verifySHA256 verifies a file using a SHA256 checksum file
func (v *Verifier) verifySHA256(archivePath, checksumPath string) (*VerificationResult, error) {
	actualChecksum, err := calculateSHA256(archivePath)
	if err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	expectedChecksum, err := findChecksum(checksumPath, filepath.Base(archivePath))
	if err != nil {
		return nil, fmt.Errorf("find checksum: %w", err)
	}

	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return nil, fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s",
			actualChecksum, expectedChecksum)
	}

	return &VerificationResult{Method: VerificationSHA256, Success: true}, nil
}

// loadKeyring reads an armored or binary public keyring
func loadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		if _, seekErr := keyringFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, seekErr
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for a specific filename in a checksum file.
// A file with a single bare hash applies to any name.
// Format: "abc123def456  filename.zip"
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	var bare []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		switch len(parts) {
		case 0:
			continue
		case 1:
			bare = append(bare, parts[0])
			continue
		}

		checksumFilename := strings.TrimPrefix(parts[1], "*")
		if checksumFilename == filename || filepath.Base(checksumFilename) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	if len(bare) == 1 {
		return bare[0], nil
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
