package license

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dynag1/VocaNote/internal/security"
)

var (
	testKey = bytes.Repeat([]byte{0x42}, 32)
	testIV  = []byte("0123456789abcdef")
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// rawBlob assembles IV || CT || MAC with a valid MAC over arbitrary ciphertext
func rawBlob(key, iv, ciphertext []byte) string {
	blob := append(append(append([]byte(nil), iv...), ciphertext...), security.ComputeMAC(key, iv, ciphertext)...)
	return base64.StdEncoding.EncodeToString(blob)
}

func TestSealOpen(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{
			name: "dated license",
			rec:  Record{HardwareID: "T3stM4ch1neF1ngerpr1ntAbCdEfGh12", Software: "VocaNote", Expiry: date(2026, 12, 31)},
		},
		{
			name: "perpetual license",
			rec:  Record{HardwareID: "T3stM4ch1neF1ngerpr1ntAbCdEfGh12", Software: "VocaNote"},
		},
		{
			name: "foreign product still decodes",
			rec:  Record{HardwareID: "x", Software: "OtherApp", Expiry: date(2030, 1, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Seal(tt.rec, testKey, testIV)
			require.NoError(t, err)

			got, err := Open(blob, testKey)
			require.NoError(t, err)
			assert.Equal(t, tt.rec.HardwareID, got.HardwareID)
			assert.Equal(t, tt.rec.Software, got.Software)
			if tt.rec.Expiry == nil {
				assert.Nil(t, got.Expiry)
			} else {
				require.NotNil(t, got.Expiry)
				assert.True(t, tt.rec.Expiry.Equal(*got.Expiry))
			}
		})
	}
}

func TestSealRejectsBadIV(t *testing.T) {
	_, err := Seal(Record{Software: "VocaNote"}, testKey, testIV[:8])
	assert.Error(t, err)
}

// TestOpenTamperDetection flips every bit position of every byte after the
// encoding and expects authentication to fail each time
func TestOpenTamperDetection(t *testing.T) {
	blob, err := Seal(Record{HardwareID: "hw", Software: "VocaNote", Expiry: date(2026, 1, 1)}, testKey, testIV)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			tampered := append([]byte(nil), raw...)
			tampered[i] ^= 1 << bit

			_, err := Open(base64.StdEncoding.EncodeToString(tampered), testKey)
			require.ErrorIsf(t, err, ErrLicenseAuthentication, "byte %d bit %d", i, bit)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	validJSON := []byte(`{"hw_id":"hw","software":"VocaNote","expiry":"2026-01-01"}`)
	encrypt := func(t *testing.T, plaintext []byte) []byte {
		ct, err := security.EncryptCBC(testKey, testIV, plaintext)
		require.NoError(t, err)
		return ct
	}

	tests := []struct {
		name    string
		blob    func(t *testing.T) string
		key     []byte
		wantErr error
	}{
		{
			name:    "not base64",
			blob:    func(t *testing.T) string { return "ABCDEF!!" },
			wantErr: ErrMalformedLicense,
		},
		{
			name:    "simple key text",
			blob:    func(t *testing.T) string { return "vRW37J494nJNQu4pvx69MBehE9r7Yk-20200101" },
			wantErr: ErrMalformedLicense,
		},
		{
			name: "shorter than iv plus mac",
			blob: func(t *testing.T) string {
				return base64.StdEncoding.EncodeToString(make([]byte, 47))
			},
			wantErr: ErrMalformedLicense,
		},
		{
			name:    "empty ciphertext with valid mac",
			blob:    func(t *testing.T) string { return rawBlob(testKey, testIV, nil) },
			wantErr: ErrMalformedLicense,
		},
		{
			name:    "partial block with valid mac",
			blob:    func(t *testing.T) string { return rawBlob(testKey, testIV, make([]byte, 20)) },
			wantErr: ErrMalformedLicense,
		},
		{
			name: "wrong key",
			blob: func(t *testing.T) string {
				return rawBlob(testKey, testIV, encrypt(t, validJSON))
			},
			key:     bytes.Repeat([]byte{0x24}, 32),
			wantErr: ErrLicenseAuthentication,
		},
		{
			name: "bad padding behind valid mac",
			blob: func(t *testing.T) string {
				// The first block of a zero-filled plaintext ends in 0x00
				return rawBlob(testKey, testIV, encrypt(t, make([]byte, 16))[:16])
			},
			wantErr: ErrInvalidPadding,
		},
		{
			name: "not json",
			blob: func(t *testing.T) string {
				return rawBlob(testKey, testIV, encrypt(t, []byte("hello world")))
			},
			wantErr: ErrInvalidPayload,
		},
		{
			name: "not utf-8",
			blob: func(t *testing.T) string {
				return rawBlob(testKey, testIV, encrypt(t, []byte{0xff, 0xfe, '{', '}'}))
			},
			wantErr: ErrInvalidPayload,
		},
		{
			name: "impossible expiry date",
			blob: func(t *testing.T) string {
				return rawBlob(testKey, testIV, encrypt(t, []byte(`{"hw_id":"hw","software":"VocaNote","expiry":"2025-02-30"}`)))
			},
			wantErr: ErrInvalidPayload,
		},
		{
			name: "expiry of wrong type",
			blob: func(t *testing.T) string {
				return rawBlob(testKey, testIV, encrypt(t, []byte(`{"hw_id":"hw","software":"VocaNote","expiry":20250101}`)))
			},
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := tt.key
			if key == nil {
				key = testKey
			}
			rec, err := Open(tt.blob(t), key)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenAcceptsWrappedBlob(t *testing.T) {
	blob, err := Seal(Record{HardwareID: "hw", Software: "VocaNote"}, testKey, testIV)
	require.NoError(t, err)

	var wrapped strings.Builder
	wrapped.WriteString("  ")
	for i, r := range blob {
		if i > 0 && i%20 == 0 {
			wrapped.WriteString("\r\n")
		}
		wrapped.WriteRune(r)
	}
	wrapped.WriteString("\t\n")

	rec, err := Open(wrapped.String(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "hw", rec.HardwareID)
}

func TestOpenNullExpiryIsPerpetual(t *testing.T) {
	ct, err := security.EncryptCBC(testKey, testIV, []byte(`{"hw_id":"hw","software":"VocaNote","expiry":null}`))
	require.NoError(t, err)

	rec, err := Open(rawBlob(testKey, testIV, ct), testKey)
	require.NoError(t, err)
	assert.Nil(t, rec.Expiry)
}

func TestClassifyLicenseError(t *testing.T) {
	assert.Equal(t, "", classifyLicenseError(nil))
	assert.Equal(t, ErrCodeAuthentication, classifyLicenseError(ErrLicenseAuthentication))
	assert.Equal(t, ErrCodeBinding, classifyLicenseError(ErrHardwareMismatch))
	assert.Equal(t, ErrCodeBinding, classifyLicenseError(ErrProductMismatch))
	assert.Equal(t, ErrCodeExpired, classifyLicenseError(ErrLicenseExpired))
	assert.Equal(t, ErrCodeOther, classifyLicenseError(assert.AnError))
}
