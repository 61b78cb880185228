package config

import "time"

// Application constants for the VocaNote license engine
const (
	// Application Info
	AppName    = "VocaNote"
	AppVersion = "1.0.0"
	AppVendor  = "Dynag"

	// EnvPrefix namespaces every environment variable (VOCANOTE_*)
	EnvPrefix = "VOCANOTE"

	// ConfigFileName is the optional YAML overlay beside the executable
	ConfigFileName = "vocanote.yaml"
)

// License protocol constants.
//
// These values are shared with the external license issuer and form a
// versioned protocol contract. Changing any of them invalidates every
// license issued so far, so they are deliberately not configurable.
const (
	// ProductID must match the "software" field of every encrypted license
	ProductID = "VocaNote"

	// LicenseMasterKey is the PBKDF2 passphrase (30 bytes)
	LicenseMasterKey = "DynagSecureLicenseVocaNote2025"

	// LicenseSalt is used both for PBKDF2 and the hardware fingerprint (16 bytes)
	LicenseSalt = "VocaNote2025Salt"

	// KeyDerivationIterations is the PBKDF2-SHA256 iteration count
	KeyDerivationIterations = 100000

	// DerivedKeyLength is the AES-256 key size in bytes
	DerivedKeyLength = 32

	// SimpleLicenseKey is the single accepted base key of the manual format
	SimpleLicenseKey = "vRW37J494nJNQu4pvx69MBehE9r7Yk"

	// ActivationCodePrefix starts every activation code
	ActivationCodePrefix = "ACT"
)

// Entitlement constants
const (
	// TranscriptionLimit is the degraded limit, in seconds, without a valid license
	TranscriptionLimit = 30

	// LicenseFileName is the persisted license state, stored beside the executable
	LicenseFileName = "vocanote_license.json"

	// LicenseSchemaVersion is written into every persisted license state
	LicenseSchemaVersion = "1.0"

	// DateLayout is the ISO date format used in licenses and persisted state
	DateLayout = "2006-01-02"

	// CompactDateLayout is the YYYYMMDD form used in simple keys and activation codes
	CompactDateLayout = "20060102"
)

// Local API defaults
const (
	DefaultListenAddr       = "127.0.0.1:8765"
	DefaultReadTimeout      = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultShutdownTimeout  = 5 * time.Second
	ActivationRateLimit     = 5 // attempts per minute
	ActivationRateBurst     = 5
	DefaultLogLevel         = "info"
	DefaultLogOutput        = "console"
	DefaultLogFileName      = "vocanote-license.log"
	DefaultTraceExporter    = "none"
	DefaultMetricsEnabled   = false
	DefaultTelemetryService = "vocanote-license"
)
