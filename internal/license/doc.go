// Package license implements offline license activation and entitlement for
// VocaNote. It decides on every launch whether this machine holds a valid
// license and, if not, which degraded transcription limit applies.
//
// # Key formats
//
// Two key formats are accepted, tried in this order:
//
//   - Encrypted licenses produced by the issuer. The JSON carries hw_id,
//     software and an optional ISO expiry date. The license binds to this
//     machine through hw_id and to the product through software.
//   - Simple keys: a fixed base key, optionally suffixed with -YYYYMMDD.
//
// Encrypted licenses use this layout:
//
//	base64(IV[16] || AES-256-CBC(PKCS7(JSON)) || HMAC-SHA256(IV || CT))
//
// The AES and HMAC key is derived once per process with PBKDF2-HMAC-SHA256.
// The MAC is always verified before decryption and compared in constant time.
//
// # State
//
// Manager holds the decision in memory and persists it as JSON next to the
// executable:
//
//	{
//	  "license_key": "...",
//	  "expiry_date": "2026-12-31",
//	  "activation_date": "2025-10-19",
//	  "version": "1.0"
//	}
//
// Expiry is re-evaluated against the clock on every query. A license whose
// expiry date is today is still valid. Read and write failures never
// propagate to callers: they leave the machine unlicensed.
//
// # Activation codes
//
// ActivationCode returns ACT-<fingerprint>-<YYYYMMDD>-<checksum> which the
// user sends to the issuer. The checksum is not verified locally.
//
// # Usage
//
//	mgr := license.NewManager(license.NewFileStore(paths.LicenseFile), license.WithLogger(logger))
//	mgr.Load(ctx)
//	if limit, limited := mgr.TranscriptionLimit(); limited {
//		// cap recordings at limit seconds
//	}
package license
