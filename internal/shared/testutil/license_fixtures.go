package testutil

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Dynag1/VocaNote/internal/config"
	"github.com/Dynag1/VocaNote/internal/license"
)

// TestFingerprint is the machine fingerprint used by fixtures
const TestFingerprint = "T3stM4ch1neF1ngerpr1ntAbCdEfGh12"

// StaticFingerprinter returns a fixed fingerprint
type StaticFingerprinter string

// Fingerprint implements license.Fingerprinter
func (s StaticFingerprinter) Fingerprint() string { return string(s) }

// Clock is a settable clock for expiry tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock fixed at now
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Date returns a civil date as used by license records
func Date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// LicenseTestFixtures seals licenses and manages a state file for tests
type LicenseTestFixtures struct {
	TestDataDir string
	Key         []byte
	Fingerprint string
}

// NewLicenseTestFixtures creates fixtures rooted in a temp directory. A fixed
// test key replaces the derived one so tests skip the PBKDF2 cost.
func NewLicenseTestFixtures(t *testing.T) *LicenseTestFixtures {
	t.Helper()

	key := make([]byte, config.DerivedKeyLength)
	for i := range key {
		key[i] = byte(i + 1)
	}

	return &LicenseTestFixtures{
		TestDataDir: t.TempDir(),
		Key:         key,
		Fingerprint: TestFingerprint,
	}
}

// LicensePath is where the fixture state file lives
func (f *LicenseTestFixtures) LicensePath() string {
	return filepath.Join(f.TestDataDir, config.LicenseFileName)
}

// Store returns a file store over LicensePath
func (f *LicenseTestFixtures) Store() *license.FileStore {
	return license.NewFileStore(f.LicensePath())
}

// NewManager builds a manager wired to the fixture key, fingerprint and clock
func (f *LicenseTestFixtures) NewManager(t *testing.T, clock *Clock, opts ...license.Option) (*license.Manager, *BufferedSlogHandler) {
	t.Helper()

	logger, handler := NewTestLogger(t)
	base := []license.Option{
		license.WithLogger(logger),
		license.WithClock(clock.Now),
		license.WithFingerprinter(StaticFingerprinter(f.Fingerprint)),
		license.WithKeySource(func() []byte { return f.Key }),
	}
	return license.NewManager(f.Store(), append(base, opts...)...), handler
}

// Seal encrypts rec with the fixture key and a random IV
func (f *LicenseTestFixtures) Seal(t *testing.T, rec license.Record) string {
	t.Helper()

	iv := make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		t.Fatalf("failed to generate iv: %v", err)
	}
	blob, err := license.Seal(rec, f.Key, iv)
	if err != nil {
		t.Fatalf("failed to seal license: %v", err)
	}
	return blob
}

// BoundLicense seals a license for this fixture's machine and product
func (f *LicenseTestFixtures) BoundLicense(t *testing.T, expiry *time.Time) string {
	t.Helper()
	return f.Seal(t, license.Record{
		HardwareID: f.Fingerprint,
		Software:   config.ProductID,
		Expiry:     expiry,
	})
}

// SimpleKey returns the accepted simple key, optionally with an expiry suffix
func (f *LicenseTestFixtures) SimpleKey(expiry *time.Time) string {
	if expiry == nil {
		return config.SimpleLicenseKey
	}
	return config.SimpleLicenseKey + "-" + expiry.Format(config.CompactDateLayout)
}

// WriteState writes a persisted state directly, bypassing the manager
func (f *LicenseTestFixtures) WriteState(t *testing.T, state license.PersistedState) {
	t.Helper()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal state: %v", err)
	}
	if err := os.WriteFile(f.LicensePath(), data, 0644); err != nil {
		t.Fatalf("failed to write state: %v", err)
	}
}

// WriteRaw writes arbitrary bytes as the state file
func (f *LicenseTestFixtures) WriteRaw(t *testing.T, data []byte) {
	t.Helper()
	if err := os.WriteFile(f.LicensePath(), data, 0644); err != nil {
		t.Fatalf("failed to write state: %v", err)
	}
}

// ReadRaw returns the state file bytes, or nil when it does not exist
func (f *LicenseTestFixtures) ReadRaw(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile(f.LicensePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read state: %v", err)
	}
	return data
}

// ReadState parses the state file
func (f *LicenseTestFixtures) ReadState(t *testing.T) license.PersistedState {
	t.Helper()

	var state license.PersistedState
	if err := json.Unmarshal(f.ReadRaw(t), &state); err != nil {
		t.Fatalf("failed to parse state: %v", err)
	}
	return state
}
