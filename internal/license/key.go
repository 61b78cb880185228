package license

import (
	"sync"

	"github.com/Dynag1/VocaNote/internal/config"
	"github.com/Dynag1/VocaNote/internal/security"
)

// derivedKey runs the 100k-iteration derivation at most once per process
var derivedKey = sync.OnceValues(func() ([]byte, error) {
	return security.DeriveKey(security.KDFParams{
		Passphrase: []byte(config.LicenseMasterKey),
		Salt:       []byte(config.LicenseSalt),
		Iterations: config.KeyDerivationIterations,
		KeyLength:  config.DerivedKeyLength,
	})
})

// DerivedKey returns a copy of the process-wide license key
func DerivedKey() []byte {
	key, err := derivedKey()
	if err != nil {
		// The parameters are compile-time constants that always validate
		panic("license: key derivation failed: " + err.Error())
	}
	out := make([]byte, len(key))
	copy(out, key)
	return out
}
