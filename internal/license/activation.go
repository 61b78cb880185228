package license

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Dynag1/VocaNote/internal/config"
)

const checksumLength = 8

// ActivationCode builds the code a user sends to the issuer to obtain a
// machine-bound license: ACT-<fingerprint>-<YYYYMMDD>-<checksum>.
//
// The checksum is the first 8 upper-case hex characters of
// SHA-256(fingerprint || date || master secret). It is never verified
// locally and only helps the issuer spot transcription mistakes.
func ActivationCode(fingerprint string, now time.Time) string {
	date := now.Format(compactDateLayout)
	return strings.Join([]string{
		config.ActivationCodePrefix,
		fingerprint,
		date,
		activationChecksum(fingerprint, date),
	}, "-")
}

func activationChecksum(fingerprint, date string) string {
	sum := sha256.Sum256([]byte(fingerprint + date + config.LicenseMasterKey))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:checksumLength]
}
