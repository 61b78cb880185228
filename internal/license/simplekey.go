package license

import (
	"strings"
	"time"

	"github.com/Dynag1/VocaNote/internal/config"
	"github.com/Dynag1/VocaNote/internal/security"
)

// SimpleKey is a manual license key, optionally suffixed with -YYYYMMDD
type SimpleKey struct {
	Base   string
	Expiry *time.Time
}

// ParseSimpleKey splits an optional expiry suffix off the key.
// The text after the last '-' is an expiry only when it is exactly eight
// ASCII digits forming a real calendar date; otherwise the whole trimmed key
// is the base.
func ParseSimpleKey(key string) SimpleKey {
	key = strings.TrimSpace(key)

	i := strings.LastIndexByte(key, '-')
	if i < 0 {
		return SimpleKey{Base: key}
	}

	suffix := key[i+1:]
	if len(suffix) != len(compactDateLayout) || !isASCIIDigits(suffix) {
		return SimpleKey{Base: key}
	}

	expiry, err := time.Parse(compactDateLayout, suffix)
	if err != nil {
		return SimpleKey{Base: key}
	}

	return SimpleKey{Base: key[:i], Expiry: &expiry}
}

// ValidateSimpleKey reports whether the key's base matches the accepted
// simple key, and returns the embedded expiry if any. Expiry is not
// evaluated here.
func ValidateSimpleKey(key string) (bool, *time.Time) {
	sk := ParseSimpleKey(key)
	if sk.Base == "" {
		return false, nil
	}
	if !security.SecureCompareString(sk.Base, config.SimpleLicenseKey) {
		return false, nil
	}
	return true, sk.Expiry
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
