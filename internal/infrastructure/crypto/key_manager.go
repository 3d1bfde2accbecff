// Package crypto provides the signing key material and the JWT access
// token codec.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
)

// KeyManager holds the process-lifetime RSA keypair used to sign and
// verify access tokens. It is immutable after construction, so concurrent
// unsynchronized reads are safe. Construction failure is fatal: the
// process cannot start without signing material.
type KeyManager struct {
	private *rsa.PrivateKey
	keyID   string
}

// NewGeneratedKeyManager generates a fresh RSA-2048 keypair. Suitable for
// development and single-instance deployments; restarts invalidate
// previously issued tokens.
func NewGeneratedKeyManager() (*KeyManager, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate rsa keypair: %w", err)
	}
	return newKeyManager(key)
}

// NewKeyManagerFromPEM loads the private key from a PEM file on disk.
func NewKeyManagerFromPEM(privateKeyPath string) (*KeyManager, error) {
	raw, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}
	key, err := ParseRSAPrivateKeyPEM(raw)
	if err != nil {
		return nil, err
	}
	return newKeyManager(key)
}

func newKeyManager(key *rsa.PrivateKey) (*KeyManager, error) {
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return &KeyManager{
		private: key,
		keyID:   hex.EncodeToString(sum[:8]),
	}, nil
}

// ParseRSAPrivateKeyPEM parses a PKCS#1 or PKCS#8 RSA private key.
func ParseRSAPrivateKeyPEM(raw []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in private key material")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return key, nil
}

// Private returns the signing key.
func (k *KeyManager) Private() *rsa.PrivateKey { return k.private }

// Public returns the verification key.
func (k *KeyManager) Public() *rsa.PublicKey { return &k.private.PublicKey }

// KeyID returns a stable identifier derived from the public key, placed
// in the kid header of issued tokens.
func (k *KeyManager) KeyID() string { return k.keyID }
