package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const validSimpleKey = "vRW37J494nJNQu4pvx69MBehE9r7Yk"

func TestParseSimpleKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		wantBase   string
		wantExpiry *time.Time
	}{
		{"plain key", validSimpleKey, validSimpleKey, nil},
		{"dated key", validSimpleKey + "-20261231", validSimpleKey, date(2026, 12, 31)},
		{"surrounding whitespace", "  " + validSimpleKey + "-20261231\n", validSimpleKey, date(2026, 12, 31)},
		{"leap day", "KEY-20240229", "KEY", date(2024, 2, 29)},
		{"invalid calendar date kept in base", "KEY-20230229", "KEY-20230229", nil},
		{"month thirteen", "KEY-20231301", "KEY-20231301", nil},
		{"seven digits", "KEY-2023010", "KEY-2023010", nil},
		{"nine digits", "KEY-202301011", "KEY-202301011", nil},
		{"signed digits", "KEY-+2023101", "KEY-+2023101", nil},
		{"only last dash counts", "A-B-20260101", "A-B", date(2026, 1, 1)},
		{"non digit suffix", "KEY-ABCDEFGH", "KEY-ABCDEFGH", nil},
		{"empty", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk := ParseSimpleKey(tt.key)
			assert.Equal(t, tt.wantBase, sk.Base)
			if tt.wantExpiry == nil {
				assert.Nil(t, sk.Expiry)
			} else if assert.NotNil(t, sk.Expiry) {
				assert.True(t, tt.wantExpiry.Equal(*sk.Expiry))
			}
		})
	}
}

func TestValidateSimpleKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		want       bool
		wantExpiry *time.Time
	}{
		{"accepted key", validSimpleKey, true, nil},
		{"accepted key with expiry", validSimpleKey + "-20200101", true, date(2020, 1, 1)},
		{"unknown short key", "ABCDEF", false, nil},
		{"one character short", validSimpleKey[:len(validSimpleKey)-1], false, nil},
		{"one character long", validSimpleKey + "X", false, nil},
		{"same length different key", "xRW37J494nJNQu4pvx69MBehE9r7Yk", false, nil},
		{"bad date suffix is part of base", validSimpleKey + "-20201399", false, nil},
		{"empty", "", false, nil},
		{"whitespace only", "   ", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, expiry := ValidateSimpleKey(tt.key)
			assert.Equal(t, tt.want, ok)
			if tt.wantExpiry == nil {
				assert.Nil(t, expiry)
			} else if assert.NotNil(t, expiry) {
				assert.True(t, tt.wantExpiry.Equal(*expiry))
			}
		})
	}
}

func TestActivationCode(t *testing.T) {
	now := time.Date(2025, 10, 19, 15, 4, 5, 0, time.Local)

	code := ActivationCode("AbCdEfGhIjKlMnOpQrStUvWxYz012345", now)
	assert.Equal(t, "ACT-AbCdEfGhIjKlMnOpQrStUvWxYz012345-20251019-1E4A7900", code)

	// Same day, same code
	assert.Equal(t, code, ActivationCode("AbCdEfGhIjKlMnOpQrStUvWxYz012345", now.Add(time.Hour)))

	// Different day, different date and checksum
	next := ActivationCode("AbCdEfGhIjKlMnOpQrStUvWxYz012345", now.AddDate(0, 0, 1))
	assert.Contains(t, next, "-20251020-")
	assert.NotEqual(t, code[len(code)-8:], next[len(next)-8:])

	assert.Regexp(t, `^ACT-.{32}-\d{8}-[0-9A-F]{8}$`, ActivationCode("T3stM4ch1neF1ngerpr1ntAbCdEfGh12", now))
}
