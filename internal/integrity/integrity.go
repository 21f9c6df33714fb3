// Package integrity checks the backend's signature over stored ciphertext.
// The AEAD tag stays the authoritative tamper check; a signature only proves
// the bytes are the ones the backend stored.
package integrity

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// Digest returns the hex SHA-256 of ciphertext, the message the backend
// signs.
func Digest(ciphertext []byte) string {
	sum := sha256.Sum256(ciphertext)
	return hex.EncodeToString(sum[:])
}

// ParseServerKey decodes a PEM "PUBLIC KEY" block holding an ECDSA key.
func ParseServerKey(publicPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(publicPEM)))
	if block == nil {
		return nil, fmt.Errorf("%w: server key is not PEM", kerrors.ErrInvalidPublicKey)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: server key is not ECDSA", kerrors.ErrInvalidPublicKey)
	}
	return ecKey, nil
}

// VerifySignature checks an ASN.1 ECDSA/SHA-256 signature, base64 encoded,
// over the hex digest string.
func VerifySignature(digest, signatureB64, serverPublicPEM string) error {
	key, err := ParseServerKey(serverPublicPEM)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signatureB64))
	if err != nil {
		return fmt.Errorf("%w: signature is not base64", kerrors.ErrSignatureInvalid)
	}
	hash := sha256.Sum256([]byte(digest))
	if !ecdsa.VerifyASN1(key, hash[:], sig) {
		return kerrors.ErrSignatureInvalid
	}
	return nil
}
