package shared

import "time"

// Remaining returns the positive duration until expiry, or (0, false) if
// expiry is nil or already in the past. This is the "None if past, else the
// positive remaining duration" rule used for both navigation arrival and
// reactor cooldown.
func Remaining(expiry *time.Time, now time.Time) (time.Duration, bool) {
	if expiry == nil {
		return 0, false
	}
	d := expiry.Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}
