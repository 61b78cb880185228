package license

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Dynag1/VocaNote/internal/security"
)

const (
	ivSize  = 16
	macSize = 32

	// minBlobSize is IV plus MAC; the ciphertext must add at least one block
	minBlobSize = ivSize + macSize
)

// Record is a decoded license as produced by the issuer
type Record struct {
	HardwareID string
	Software   string
	// Expiry is a civil date; nil means the license never expires
	Expiry *time.Time
}

// wireRecord is the JSON payload inside the ciphertext
type wireRecord struct {
	HardwareID string `json:"hw_id"`
	Software   string `json:"software"`
	Expiry     string `json:"expiry,omitempty"`
}

// Open authenticates and decrypts a license blob.
//
// Wire format: base64(IV[16] || AES-256-CBC(PKCS7(JSON)) || HMAC-SHA256(IV || CT)).
// The MAC is verified in constant time before any decryption takes place.
// Open performs no binding checks; see Manager for hardware and product binding.
func Open(blob string, key []byte) (*Record, error) {
	raw, err := base64.StdEncoding.DecodeString(stripWhitespace(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLicense, err)
	}
	if len(raw) < minBlobSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedLicense, len(raw))
	}

	iv := raw[:ivSize]
	ciphertext := raw[ivSize : len(raw)-macSize]
	tag := raw[len(raw)-macSize:]

	if !security.VerifyMAC(key, tag, iv, ciphertext) {
		return nil, ErrLicenseAuthentication
	}

	plaintext, err := security.DecryptCBC(key, iv, ciphertext)
	switch {
	case errors.Is(err, security.ErrInvalidBlockSize):
		return nil, fmt.Errorf("%w: %w", ErrMalformedLicense, err)
	case errors.Is(err, security.ErrInvalidPadding):
		return nil, fmt.Errorf("%w: %w", ErrInvalidPadding, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return decodeRecord(plaintext)
}

func decodeRecord(plaintext []byte) (*Record, error) {
	if !utf8.Valid(plaintext) {
		return nil, fmt.Errorf("%w: payload is not UTF-8", ErrInvalidPayload)
	}

	var wire wireRecord
	if err := json.Unmarshal(plaintext, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	rec := &Record{
		HardwareID: wire.HardwareID,
		Software:   wire.Software,
	}
	if wire.Expiry != "" {
		expiry, err := parseDate(wire.Expiry)
		if err != nil {
			return nil, fmt.Errorf("%w: expiry %q: %v", ErrInvalidPayload, wire.Expiry, err)
		}
		rec.Expiry = &expiry
	}
	return rec, nil
}

// Seal encrypts and authenticates a record with the given key and IV.
// It is the exact inverse of Open and is used for local issuance in tests
// and developer tooling.
func Seal(rec Record, key, iv []byte) (string, error) {
	if len(iv) != ivSize {
		return "", fmt.Errorf("iv must be %d bytes", ivSize)
	}

	wire := wireRecord{
		HardwareID: rec.HardwareID,
		Software:   rec.Software,
	}
	if rec.Expiry != nil {
		wire.Expiry = rec.Expiry.Format(dateLayout)
	}

	plaintext, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal license record: %w", err)
	}

	ciphertext, err := security.EncryptCBC(key, iv, plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt license record: %w", err)
	}

	blob := make([]byte, 0, ivSize+len(ciphertext)+macSize)
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)
	blob = append(blob, security.ComputeMAC(key, iv, ciphertext)...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
