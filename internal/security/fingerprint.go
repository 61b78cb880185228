package security

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// FingerprintLength is the number of base64 characters kept from the final digest
	FingerprintLength = 32

	// processorDescriptionLimit truncates the processor description (in characters)
	processorDescriptionLimit = 50

	componentSeparator = "|"
)

// HostProbe reads the low-volatility host attributes a fingerprint is built from
type HostProbe interface {
	Hostname() (string, error)
	NodeID() (uint64, error)
	Machine() (string, error)
	Processor() (string, error)
}

// FingerprintComponents holds the raw attributes, already rendered as text
type FingerprintComponents struct {
	Hostname  string `json:"hostname"`
	NodeID    string `json:"node_id"`
	Machine   string `json:"machine"`
	Processor string `json:"processor"`
}

// Fingerprinter derives the stable per-machine identifier
type Fingerprinter struct {
	probe  HostProbe
	salt   []byte
	logger *slog.Logger
}

// NewFingerprinter creates a fingerprinter over the given probe.
// A nil probe reads the real host.
func NewFingerprinter(probe HostProbe, salt []byte, logger *slog.Logger) *Fingerprinter {
	if probe == nil {
		probe = SystemProbe{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fingerprinter{
		probe:  probe,
		salt:   append([]byte(nil), salt...),
		logger: logger.With(slog.String("component", "fingerprint")),
	}
}

// Fingerprint returns the 32-character machine fingerprint.
// It never fails: an unreadable attribute contributes an empty string.
func (f *Fingerprinter) Fingerprint() string {
	return ComputeFingerprint(f.Components(), f.salt)
}

// Components collects the host attributes, substituting "" for failures
func (f *Fingerprinter) Components() FingerprintComponents {
	var c FingerprintComponents

	if hostname, err := f.probe.Hostname(); err == nil {
		c.Hostname = hostname
	} else {
		f.logger.Warn("Hostname unavailable for fingerprint", slog.String("error", err.Error()))
	}

	if node, err := f.probe.NodeID(); err == nil {
		c.NodeID = strconv.FormatUint(node, 10)
	} else {
		f.logger.Warn("Network interface identifier unavailable for fingerprint", slog.String("error", err.Error()))
	}

	if machine, err := f.probe.Machine(); err == nil {
		c.Machine = machine
	} else {
		f.logger.Warn("Machine architecture unavailable for fingerprint", slog.String("error", err.Error()))
	}

	if processor, err := f.probe.Processor(); err == nil {
		c.Processor = truncateRunes(processor, processorDescriptionLimit)
	} else {
		f.logger.Warn("Processor description unavailable for fingerprint", slog.String("error", err.Error()))
	}

	return c
}

// ComputeFingerprint runs the hash chain over already collected components:
// SHA-256(components ‖ salt) → SHA-512 → BLAKE2b-256 → base64, first 32 chars.
// The order of the chain is shared with the issuer and must not change.
func ComputeFingerprint(c FingerprintComponents, salt []byte) string {
	combined := strings.Join([]string{c.Hostname, c.NodeID, c.Machine, c.Processor}, componentSeparator)

	material := make([]byte, 0, len(combined)+len(salt))
	material = append(material, combined...)
	material = append(material, salt...)

	h1 := sha256.Sum256(material)
	h2 := sha512.Sum512(h1[:])
	h3 := blake2b.Sum256(h2[:])

	return base64.StdEncoding.EncodeToString(h3[:])[:FingerprintLength]
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// SystemProbe reads attributes from the running host
type SystemProbe struct{}

// Hostname returns the machine network name as reported by the OS
func (SystemProbe) Hostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	return hostname, nil
}

// NodeID returns the 48-bit hardware address of the primary interface as an integer.
// Interfaces are scanned in index order; universally administered addresses win
// over locally administered ones.
func (SystemProbe) NodeID() (uint64, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return 0, fmt.Errorf("failed to get network interfaces: %w", err)
	}
	return selectNodeID(interfaces)
}

func selectNodeID(interfaces []net.Interface) (uint64, error) {
	var fallback net.HardwareAddr
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		mac := iface.HardwareAddr
		if len(mac) != 6 || isZeroMAC(mac) {
			continue
		}
		// Bit 1 of the first octet marks a locally administered address
		if mac[0]&0x02 == 0 {
			return macToUint(mac), nil
		}
		if fallback == nil {
			fallback = mac
		}
	}
	if fallback != nil {
		return macToUint(fallback), nil
	}
	return 0, errors.New("no valid hardware address found")
}

func isZeroMAC(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}

func macToUint(mac net.HardwareAddr) uint64 {
	var n uint64
	for _, b := range mac {
		n = n<<8 | uint64(b)
	}
	return n
}

// Machine returns the processor architecture using the platform's own naming
func (SystemProbe) Machine() (string, error) {
	if runtime.GOOS == "windows" {
		if arch := os.Getenv("PROCESSOR_ARCHITEW6432"); arch != "" {
			return arch, nil
		}
		if arch := os.Getenv("PROCESSOR_ARCHITECTURE"); arch != "" {
			return arch, nil
		}
	}
	return machineName(runtime.GOOS, runtime.GOARCH), nil
}

func machineName(goos, goarch string) string {
	switch goos {
	case "windows":
		switch goarch {
		case "amd64":
			return "AMD64"
		case "386":
			return "x86"
		case "arm64":
			return "ARM64"
		}
	case "darwin":
		switch goarch {
		case "amd64":
			return "x86_64"
		case "arm64":
			return "arm64"
		}
	default:
		switch goarch {
		case "amd64":
			return "x86_64"
		case "386":
			return "i686"
		case "arm64":
			return "aarch64"
		case "arm":
			return "armv7l"
		}
	}
	return goarch
}

// Processor returns a short processor description
func (p SystemProbe) Processor() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if id := os.Getenv("PROCESSOR_IDENTIFIER"); id != "" {
			return id, nil
		}
		return "", errors.New("PROCESSOR_IDENTIFIER not set")
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "arm", nil
		}
		return "i386", nil
	default:
		return p.Machine()
	}
}
