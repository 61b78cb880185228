package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Dynag1/VocaNote/internal/config"
	"github.com/Dynag1/VocaNote/internal/security"
)

// Fingerprinter yields the current machine fingerprint
type Fingerprinter interface {
	Fingerprint() string
}

// Manager owns the license state of this machine.
//
// States: no license, valid, expired. Expiry is evaluated against the
// clock on every query, at day granularity: a license whose expiry date
// is today is still valid. Persistence failures never escape the public
// API; they degrade to the restricted tier.
type Manager struct {
	store         Store
	fingerprinter Fingerprinter
	now           func() time.Time
	logger        *slog.Logger
	metrics       *LicenseMetrics

	keySource func() []byte
	keyOnce   sync.Once
	key       []byte

	mu      sync.RWMutex
	current entitlement
}

// entitlement is the in-memory license decision
type entitlement struct {
	key       string
	expiry    *time.Time
	activated *time.Time
	// verified is set once the key passed either the encrypted or the simple check
	verified bool
}

func (e entitlement) valid(now time.Time) bool {
	return e.verified && !isExpired(e.expiry, now)
}

func (e entitlement) persisted() PersistedState {
	return PersistedState{
		LicenseKey:     e.key,
		ExpiryDate:     formatDate(e.expiry),
		ActivationDate: formatDate(e.activated),
		Version:        config.LicenseSchemaVersion,
	}
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithFingerprinter replaces the host fingerprinter
func WithFingerprinter(f Fingerprinter) Option {
	return func(m *Manager) { m.fingerprinter = f }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics enables metric recording
func WithMetrics(metrics *LicenseMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithKeySource replaces the process-wide derived key
func WithKeySource(source func() []byte) Option {
	return func(m *Manager) { m.keySource = source }
}

// NewManager creates a manager over store. Call Load to read the
// persisted state.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		now:       time.Now,
		logger:    slog.Default(),
		keySource: DerivedKey,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fingerprinter == nil {
		m.fingerprinter = security.NewFingerprinter(nil, []byte(config.LicenseSalt), m.logger)
	}
	return m
}

// Load replaces the in-memory state with the persisted one, re-verifying
// the stored key. Any read or parse failure leaves the manager without a
// license.
func (m *Manager) Load(ctx context.Context) {
	ctx, span := startSpan(ctx, "license.load")

	state, err := m.store.Load()
	if err != nil {
		m.mu.Lock()
		m.current = entitlement{}
		m.mu.Unlock()

		m.logWarn(ctx, "load", "License state unreadable, running unlicensed",
			slog.String("path", m.store.Path()),
			slog.String("error", err.Error()),
		)
		m.recordLoad(ctx, false)
		endSpan(span, err)
		return
	}

	key := strings.TrimSpace(state.LicenseKey)
	if key == "" {
		m.mu.Lock()
		m.current = entitlement{}
		m.mu.Unlock()

		m.logInfo(ctx, "load", "No license recorded", slog.String("path", m.store.Path()))
		m.recordLoad(ctx, false)
		endSpan(span, nil)
		return
	}

	v := m.verifyKey(ctx, key)
	ent := entitlement{
		key:       key,
		activated: parseStoredDate(state.ActivationDate),
		verified:  v.authentic(),
	}
	if v.authentic() {
		ent.expiry = v.expiry
	} else {
		ent.expiry = parseStoredDate(state.ExpiryDate)
	}

	now := m.now()
	m.mu.Lock()
	m.current = ent
	m.mu.Unlock()

	entitled := ent.valid(now)
	attrs := append(keyAttrs(key),
		slog.String("key_kind", string(v.kind)),
		slog.Bool("entitled", entitled),
	)
	switch {
	case !v.authentic():
		attrs = append(attrs, slog.String("error_type", classifyLicenseError(v.err)))
		m.logWarn(ctx, "load", "Stored license key is not valid on this machine", attrs...)
	case !entitled:
		attrs = append(attrs, expiryAttr(ent.expiry))
		m.logWarn(ctx, "load", "Stored license has expired", attrs...)
	default:
		m.logInfo(ctx, "load", "License loaded", attrs...)
	}

	m.recordLoad(ctx, entitled)
	endSpan(span, v.err)
}

// Activate verifies key and, when it grants an entitlement, persists it.
// Only a boolean is returned so callers cannot tell which check failed.
func (m *Manager) Activate(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	ctx, span := startSpan(ctx, "license.activate", attribute.String("license.key_hash", hashLicenseKey(key)))

	ok, err := m.activate(ctx, key)
	m.recordActivation(ctx, ok)
	endSpan(span, err)
	return ok
}

func (m *Manager) activate(ctx context.Context, key string) (bool, error) {
	if key == "" {
		m.logWarn(ctx, "activate", "Empty license key rejected")
		return false, ErrUnknownKey
	}

	v := m.verifyKey(ctx, key)
	if !v.authentic() {
		m.logWarn(ctx, "activate", "License activation rejected",
			append(keyAttrs(key), slog.String("error_type", classifyLicenseError(v.err)))...)
		return false, v.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	expired := isExpired(v.expiry, now)

	if expired && m.current.valid(now) {
		m.logWarn(ctx, "activate", "Expired license ignored while a valid license is active",
			append(keyAttrs(key), expiryAttr(v.expiry))...)
		return false, ErrLicenseExpired
	}

	today := civilDate(now)
	m.current = entitlement{
		key:       key,
		expiry:    v.expiry,
		activated: &today,
		verified:  true,
	}

	if expired {
		// Encrypted licenses are remembered so status can report when they
		// expired; expired simple keys stay in memory only.
		if v.kind == kindEncrypted {
			_ = m.persistLocked(ctx)
		}
		m.logWarn(ctx, "activate", "License activation rejected: license expired",
			append(keyAttrs(key),
				slog.String("key_kind", string(v.kind)),
				expiryAttr(v.expiry),
			)...)
		return false, ErrLicenseExpired
	}

	if err := m.persistLocked(ctx); err != nil {
		m.logWarn(ctx, "activate", "License active for this session only")
	}

	m.logInfo(ctx, "activate", "License activated",
		append(keyAttrs(key),
			slog.String("key_kind", string(v.kind)),
			expiryAttr(v.expiry),
		)...)
	return true, nil
}

// Deactivate clears the license. It always succeeds from the caller's
// point of view; a failed write is logged.
func (m *Manager) Deactivate(ctx context.Context) {
	ctx, span := startSpan(ctx, "license.deactivate")

	m.mu.Lock()
	m.current = entitlement{}
	err := m.persistLocked(ctx)
	m.mu.Unlock()

	m.logInfo(ctx, "deactivate", "License deactivated")
	endSpan(span, err)
}

// IsLicensed reports whether this machine currently holds a valid entitlement
func (m *Manager) IsLicensed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.valid(m.now())
}

// TranscriptionLimit returns the degraded limit in seconds and true when
// unlicensed, or 0 and false when no limit applies
func (m *Manager) TranscriptionLimit() (int, bool) {
	if m.IsLicensed() {
		return 0, false
	}
	return config.TranscriptionLimit, true
}

// Status derives a display view of the current state
func (m *Manager) Status(ctx context.Context) Status {
	m.mu.RLock()
	ent := m.current
	m.mu.RUnlock()

	status := ent.status(m.now())
	m.logDebug(ctx, "status", "License status computed",
		slog.Bool("is_valid", status.IsValid),
		slog.String("days_remaining_text", status.DaysRemainingText),
	)
	return status
}

// ActivationCode returns the code to send to the issuer for this machine
func (m *Manager) ActivationCode() string {
	return ActivationCode(m.fingerprinter.Fingerprint(), m.now())
}

// Fingerprint returns this machine's fingerprint
func (m *Manager) Fingerprint() string {
	return m.fingerprinter.Fingerprint()
}

// LicensePath returns where the license state is persisted
func (m *Manager) LicensePath() string {
	return m.store.Path()
}

// persistLocked writes the current state; m.mu must be held
func (m *Manager) persistLocked(ctx context.Context) error {
	if err := m.store.Save(m.current.persisted()); err != nil {
		m.logError(ctx, "persist", "Failed to save license state",
			slog.String("path", m.store.Path()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to persist license: %w", err)
	}
	return nil
}

// licenseKey derives the codec key on first use
func (m *Manager) licenseKey(ctx context.Context) []byte {
	m.keyOnce.Do(func() {
		start := time.Now()
		m.key = m.keySource()
		m.recordKeyDerivation(ctx, time.Since(start))
	})
	return m.key
}

type keyKind string

const (
	kindEncrypted keyKind = "encrypted"
	kindSimple    keyKind = "simple"
)

// verification is the result of checking a key against both formats
type verification struct {
	kind   keyKind
	expiry *time.Time
	// err explains why the key was not accepted; nil when authentic
	err error
}

func (v verification) authentic() bool {
	return v.kind != ""
}

// verifyKey tries the encrypted format with machine and product binding
// first, then the simple-key format of the same input. Expiry is not
// evaluated here.
func (m *Manager) verifyKey(ctx context.Context, key string) verification {
	rec, err := Open(key, m.licenseKey(ctx))
	if err == nil {
		err = m.checkBinding(rec)
		if err == nil {
			return verification{kind: kindEncrypted, expiry: rec.Expiry}
		}
	}

	if ok, expiry := ValidateSimpleKey(key); ok {
		return verification{kind: kindSimple, expiry: expiry}
	}

	if errors.Is(err, ErrMalformedLicense) {
		err = ErrUnknownKey
	}
	return verification{err: err}
}

func (m *Manager) checkBinding(rec *Record) error {
	if rec.Software != config.ProductID {
		return ErrProductMismatch
	}
	if !security.SecureCompareString(rec.HardwareID, m.fingerprinter.Fingerprint()) {
		return ErrHardwareMismatch
	}
	return nil
}

func parseStoredDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}
