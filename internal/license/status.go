package license

import (
	"fmt"
	"time"

	"github.com/Dynag1/VocaNote/internal/config"
)

// Status is the display view of the license, recomputed on every call
type Status struct {
	IsValid           bool    `json:"is_valid"`
	KeyMasked         *string `json:"key_masked"`
	LimitSeconds      *int    `json:"limit_seconds"`
	ExpiryDate        *string `json:"expiry_date"`
	DaysRemaining     *int    `json:"days_remaining"`
	DaysRemainingText string  `json:"days_remaining_text"`
	ActivationDate    *string `json:"activation_date"`
	IsPerpetual       bool    `json:"is_perpetual"`
}

func (e entitlement) status(now time.Time) Status {
	s := Status{
		IsValid:        e.valid(now),
		ExpiryDate:     formatDate(e.expiry),
		ActivationDate: formatDate(e.activated),
	}

	if e.key != "" {
		masked := MaskLicenseKey(e.key)
		s.KeyMasked = &masked
	}

	if !s.IsValid {
		limit := config.TranscriptionLimit
		s.LimitSeconds = &limit
	}

	if e.expiry != nil {
		days := max(daysUntil(*e.expiry, civilDate(now)), -1)
		s.DaysRemaining = &days
	}

	s.DaysRemainingText = daysRemainingText(s.DaysRemaining)
	s.IsPerpetual = s.DaysRemaining == nil && s.IsValid
	return s
}

func daysRemainingText(days *int) string {
	switch {
	case days == nil:
		return "Perpetual"
	case *days < 0:
		return "Expired"
	case *days == 0:
		return "Expires today"
	case *days == 1:
		return "1 day remaining"
	default:
		return fmt.Sprintf("%d days remaining", *days)
	}
}
