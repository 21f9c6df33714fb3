package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// RSAKeyBits is the modulus size of every generated identity.
const RSAKeyBits = 2048

// PEM block types for identity halves.
const (
	PublicKeyBlockType  = "PUBLIC KEY"
	PrivateKeyBlockType = "PRIVATE KEY"
)

// Identity is a user's RSA-OAEP key pair together with its PEM encodings.
// The PEM strings are kept exactly as they were generated or imported so a
// backup round trip is byte-identical.
type Identity struct {
	PublicPEM  string
	PrivatePEM string

	public  *rsa.PublicKey
	private *rsa.PrivateKey
}

// PublicKey returns the parsed public half.
func (id *Identity) PublicKey() *rsa.PublicKey {
	return id.public
}

// Fingerprint returns the hex SHA-256 of the public key's SPKI encoding.
func (id *Identity) Fingerprint() string {
	fp, _ := Fingerprint(id.PublicPEM)
	return fp
}

// GenerateIdentity creates a fresh RSA-2048 key pair and encodes both halves
// as PEM (SPKI for public, PKCS8 for private).
func GenerateIdentity() (*Identity, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyGeneration, err)
	}

	pubASN1, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal public key: %v", kerrors.ErrKeyGeneration, err)
	}
	privASN1, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal private key: %v", kerrors.ErrKeyGeneration, err)
	}

	return &Identity{
		PublicPEM:  encodePEM(PublicKeyBlockType, pubASN1),
		PrivatePEM: encodePEM(PrivateKeyBlockType, privASN1),
		public:     &privateKey.PublicKey,
		private:    privateKey,
	}, nil
}

// ParseIdentity validates both PEM blocks as RSA-OAEP keys and checks they
// belong to the same key pair.
func ParseIdentity(publicPEM, privatePEM string) (*Identity, error) {
	pub, err := ParsePublicKeyPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", kerrors.ErrImportValidation, err)
	}
	priv, err := ParsePrivateKeyPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", kerrors.ErrImportValidation, err)
	}
	if pub.N.Cmp(priv.N) != 0 || pub.E != priv.E {
		return nil, fmt.Errorf("%w: public key does not belong to private key", kerrors.ErrImportValidation)
	}

	return &Identity{
		PublicPEM:  publicPEM,
		PrivatePEM: privatePEM,
		public:     pub,
		private:    priv,
	}, nil
}

// ParsePublicKeyPEM decodes an SPKI "PUBLIC KEY" block holding an RSA key.
func ParsePublicKeyPEM(data string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(data)))
	if block == nil || block.Type != PublicKeyBlockType {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPub, nil
}

// ParsePrivateKeyPEM decodes a PKCS8 "PRIVATE KEY" block holding an RSA key.
func ParsePrivateKeyPEM(data string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(data)))
	if block == nil || block.Type != PrivateKeyBlockType {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key")
	}
	if err := rsaKey.Validate(); err != nil {
		return nil, err
	}
	return rsaKey, nil
}

// Fingerprint returns the hex SHA-256 of a PEM public key's SPKI bytes.
func Fingerprint(publicPEM string) (string, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(publicPEM)))
	if block == nil || block.Type != PublicKeyBlockType {
		return "", fmt.Errorf("%w: not a public key PEM block", kerrors.ErrInvalidPublicKey)
	}
	sum := sha256.Sum256(block.Bytes)
	return hex.EncodeToString(sum[:]), nil
}

// encodePEM renders a block with 64-column base64 lines and no trailing
// newline, so the text fits a single spreadsheet cell unchanged.
func encodePEM(blockType string, der []byte) string {
	return strings.TrimSuffix(string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})), "\n")
}
