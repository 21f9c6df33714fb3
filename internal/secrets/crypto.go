package secrets

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// ContentKeySize is the length of a ContentKey in bytes (256 bits).
const ContentKeySize = chacha20poly1305.KeySize

// NonceSize is the length of the nonce prepended to EncryptedContent.
const NonceSize = chacha20poly1305.NonceSize

// SealedExt is appended to files sealed by EncryptFile.
const SealedExt = ".reel"

// CreateContentKey generates a new random ContentKey.
func CreateContentKey() ([]byte, error) {
	key := make([]byte, ContentKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("%w: failed to read random key: %v", kerrors.ErrKeyGeneration, err)
	}
	return key, nil
}

// EncryptContent seals plaintext under key with ChaCha20-Poly1305 and a fresh
// random nonce. The result is nonce || ciphertext || tag.
func EncryptContent(plaintext, key []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: failed to read nonce: %v", kerrors.ErrEncryptFailed, err)
	}
	return sealWithNonce(plaintext, key, nonce)
}

func sealWithNonce(plaintext, key, nonce []byte) ([]byte, error) {
	if len(key) != ContentKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, ContentKeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+aead.Overhead())
	copy(out, nonce)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// DecryptContent splits off the nonce, then authenticates and decrypts the
// rest. It returns ErrDecryptionAuth and no bytes if the tag does not verify.
func DecryptContent(encrypted, key []byte) ([]byte, error) {
	if len(key) != ContentKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, ContentKeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrDecryptionAuth, err)
	}
	if len(encrypted) < NonceSize+aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", kerrors.ErrDecryptionAuth)
	}

	nonce, ciphertext := encrypted[:NonceSize], encrypted[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, kerrors.ErrDecryptionAuth
	}
	return plaintext, nil
}

// EncryptFile seals the file at inputPath to inputPath+".reel" and returns
// the output path.
func EncryptFile(key []byte, inputPath string) (string, error) {
	plaintext, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	ciphertext, err := EncryptContent(plaintext, key)
	if err != nil {
		return "", err
	}

	outputPath := inputPath + SealedExt
	if err := os.WriteFile(outputPath, ciphertext, 0600); err != nil {
		return "", fmt.Errorf("failed to write to %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// DecryptFile opens a sealed file and writes the plaintext to outputPath, or
// next to the input with the ".reel" suffix removed when outputPath is empty.
// Nothing is written if authentication fails.
func DecryptFile(key []byte, inputPath, outputPath string) (string, error) {
	ciphertext, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	plaintext, err := DecryptContent(ciphertext, key)
	if err != nil {
		return "", kerrors.Wrap("decrypt "+inputPath, err)
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, SealedExt)
		if outputPath == inputPath {
			outputPath = inputPath + ".out"
		}
	}
	if err := os.WriteFile(outputPath, plaintext, 0600); err != nil {
		return "", fmt.Errorf("failed to write to %s: %w", outputPath, err)
	}
	return outputPath, nil
}
