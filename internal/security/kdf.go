package security

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// KDFParams describes a PBKDF2-HMAC-SHA256 derivation
type KDFParams struct {
	Passphrase []byte
	Salt       []byte
	Iterations int
	KeyLength  int
}

// Validate checks the parameters before running the derivation
func (p KDFParams) Validate() error {
	if len(p.Passphrase) == 0 {
		return errors.New("passphrase cannot be empty")
	}
	if len(p.Salt) < 16 {
		return errors.New("salt must be at least 16 bytes")
	}
	if p.Iterations < 1 {
		return errors.New("iterations must be positive")
	}
	switch p.KeyLength {
	case 16, 24, 32:
	default:
		return errors.New("key length must be a valid AES key size")
	}
	return nil
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over the parameters
func DeriveKey(p KDFParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return pbkdf2.Key(p.Passphrase, p.Salt, p.Iterations, p.KeyLength, sha256.New), nil
}
