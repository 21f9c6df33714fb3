// Package secrets provides the envelope encryption core of sealreel.
//
// # Encryption Architecture
//
// sealreel uses a hybrid encryption scheme:
//
//  1. A random 256-bit ContentKey encrypts one media item with ChaCha20-Poly1305
//  2. The owner's RSA-OAEP public key wraps a copy of the ContentKey
//  3. Approving a viewer unwraps the owner's copy and re-wraps it to the
//     viewer's public key, inside a single call
//
// Only WrappedKeys and ciphertext ever leave the process. The backend never
// sees a ContentKey or a private key.
//
// # Identity Custody
//
// Custody owns the user's identity: an RSA-2048 key pair with SHA-256 OAEP,
// stored as PEM text (SPKI public, PKCS8 private) in a keystore.Store. The
// parsed pair is cached per Custody instance. ReplaceIdentity validates both
// halves before it writes anything.
//
// Regenerating an identity is destructive: every WrappedKey addressed to the
// previous public key can no longer be opened. There is no migration path.
//
// # Content Format
//
// EncryptedContent is nonce (12 bytes) || ciphertext || tag (16 bytes), with
// no additional authenticated data. Decryption fails closed: a bad tag
// returns ErrDecryptionAuth and never partial plaintext.
package secrets
