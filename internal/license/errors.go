package license

import (
	"errors"
)

// Codec errors. They are returned wrapped and are used for logging and
// metrics classification only; callers of Manager never see them.
var (
	// ErrMalformedLicense means the blob is not base64 or too short to hold IV, ciphertext and MAC
	ErrMalformedLicense = errors.New("malformed license blob")

	// ErrLicenseAuthentication means the HMAC did not verify; the ciphertext was not decrypted
	ErrLicenseAuthentication = errors.New("license authentication failed")

	// ErrInvalidPadding means the decrypted payload carried bad PKCS7 padding
	ErrInvalidPadding = errors.New("invalid license padding")

	// ErrInvalidPayload means the decrypted payload is not a usable license record
	ErrInvalidPayload = errors.New("invalid license payload")
)

// Binding and entitlement errors
var (
	ErrHardwareMismatch = errors.New("license is bound to a different machine")
	ErrProductMismatch  = errors.New("license was issued for a different product")
	ErrLicenseExpired   = errors.New("license expired")
	ErrUnknownKey       = errors.New("license key not recognized")
)

// Error codes used in logs and span attributes
const (
	ErrCodeMalformed      = "MALFORMED"
	ErrCodeAuthentication = "AUTHENTICATION"
	ErrCodePadding        = "PADDING"
	ErrCodePayload        = "PAYLOAD"
	ErrCodeBinding        = "BINDING"
	ErrCodeExpired        = "EXPIRED"
	ErrCodeUnknownKey     = "UNKNOWN_KEY"
	ErrCodeOther          = "OTHER"
)

// classifyLicenseError maps an error to its code
func classifyLicenseError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedLicense):
		return ErrCodeMalformed
	case errors.Is(err, ErrLicenseAuthentication):
		return ErrCodeAuthentication
	case errors.Is(err, ErrInvalidPadding):
		return ErrCodePadding
	case errors.Is(err, ErrInvalidPayload):
		return ErrCodePayload
	case errors.Is(err, ErrHardwareMismatch), errors.Is(err, ErrProductMismatch):
		return ErrCodeBinding
	case errors.Is(err, ErrLicenseExpired):
		return ErrCodeExpired
	case errors.Is(err, ErrUnknownKey):
		return ErrCodeUnknownKey
	default:
		return ErrCodeOther
	}
}
