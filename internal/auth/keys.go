package auth

import (
	"crypto/rsa"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// KeyStore provides access to JWT signing and verification keys.
type KeyStore interface {
	// SigningKey returns the current private signing key and its key ID.
	SigningKey() (*rsa.PrivateKey, string, error)

	// PublicKey returns the public key for the given key ID.
	PublicKey(kid string) (*rsa.PublicKey, error)
}

// StaticKeyStore is a KeyStore backed by in-memory keys.
type StaticKeyStore struct {
	mu         sync.RWMutex
	privateKey *rsa.PrivateKey
	keyID      string
	publicKeys map[string]*rsa.PublicKey
}

// NewStaticKeyStore creates a StaticKeyStore with a single key pair.
func NewStaticKeyStore(privateKey *rsa.PrivateKey, keyID string) *StaticKeyStore {
	return &StaticKeyStore{
		privateKey: privateKey,
		keyID:      keyID,
		publicKeys: map[string]*rsa.PublicKey{
			keyID: &privateKey.PublicKey,
		},
	}
}

// NewVerifyOnlyKeyStore creates a StaticKeyStore that can validate tokens
// signed under kid but cannot mint new ones.
func NewVerifyOnlyKeyStore(publicKey *rsa.PublicKey, kid string) *StaticKeyStore {
	return &StaticKeyStore{
		publicKeys: map[string]*rsa.PublicKey{kid: publicKey},
	}
}

// LoadKeyStoreFile reads a PEM file holding either an RSA private key (sign
// and verify) or an RSA public key (verify only).
func LoadKeyStoreFile(path, kid string) (*StaticKeyStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	if priv, err := jwt.ParseRSAPrivateKeyFromPEM(data); err == nil {
		return NewStaticKeyStore(priv, kid), nil
	}

	pub, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse key file %s: not an RSA private or public key", path)
	}
	return NewVerifyOnlyKeyStore(pub, kid), nil
}

// SigningKey returns the private signing key and its key ID.
func (s *StaticKeyStore) SigningKey() (*rsa.PrivateKey, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.privateKey == nil {
		return nil, "", fmt.Errorf("no signing key available")
	}
	return s.privateKey, s.keyID, nil
}

// PublicKey returns the public key for the given key ID.
func (s *StaticKeyStore) PublicKey(kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pk, ok := s.publicKeys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key ID %q", kid)
	}
	return pk, nil
}

// AddPublicKey adds a verification key, for rotation.
func (s *StaticKeyStore) AddPublicKey(kid string, key *rsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publicKeys == nil {
		s.publicKeys = make(map[string]*rsa.PublicKey)
	}
	s.publicKeys[kid] = key
}
