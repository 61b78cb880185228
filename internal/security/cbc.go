package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
)

var (
	// ErrInvalidPadding is returned when PKCS7 padding does not verify
	ErrInvalidPadding = errors.New("invalid PKCS7 padding")

	// ErrInvalidBlockSize is returned when ciphertext is not a whole number of blocks
	ErrInvalidBlockSize = errors.New("ciphertext is not a multiple of the block size")
)

// EncryptCBC pads plaintext with PKCS7 and encrypts it with AES-CBC
func EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("iv must be %d bytes", block.BlockSize())
	}

	padded := PKCS7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptCBC decrypts AES-CBC ciphertext and strips PKCS7 padding.
// Callers must authenticate the ciphertext before calling this.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("iv must be %d bytes", block.BlockSize())
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, ErrInvalidBlockSize
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return PKCS7Unpad(padded, block.BlockSize())
}

// PKCS7Pad appends PKCS7 padding; a full block is added when already aligned
func PKCS7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out
}

// PKCS7Unpad removes and verifies PKCS7 padding
func PKCS7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}

// ComputeMAC returns HMAC-SHA256 over the concatenated parts
func ComputeMAC(key []byte, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, key)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

// VerifyMAC recomputes the MAC and compares it in constant time
func VerifyMAC(key, expected []byte, parts ...[]byte) bool {
	return hmac.Equal(ComputeMAC(key, parts...), expected)
}

// SecureCompare performs constant-time comparison to prevent timing attacks.
// Inputs of different length are rejected without comparing any bytes.
func SecureCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SecureCompareString is SecureCompare for strings
func SecureCompareString(a, b string) bool {
	return SecureCompare([]byte(a), []byte(b))
}
