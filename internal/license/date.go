package license

import (
	"time"

	"github.com/Dynag1/VocaNote/internal/config"
)

const (
	dateLayout        = config.DateLayout
	compactDateLayout = config.CompactDateLayout
)

// Dates in this package are civil dates: UTC midnight values carrying only
// year, month and day. Wall-clock instants are converted with civilDate
// using the clock's own location.

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// daysUntil counts calendar days from today to expiry; negative once past.
// Both are civil dates, so the Unix difference is a whole number of days.
func daysUntil(expiry, today time.Time) int {
	return int((expiry.Unix() - today.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// isExpired reports whether the civil expiry date lies strictly before today.
// A nil expiry never expires.
func isExpired(expiry *time.Time, now time.Time) bool {
	if expiry == nil {
		return false
	}
	return civilDate(now).After(*expiry)
}
