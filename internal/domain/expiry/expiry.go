// Package expiry computes how long a team post stays open.
package expiry

import (
	"fmt"
	"time"
)

// ExpiredDisplay is shown once a post is no longer active.
const ExpiredDisplay = "Expired"

// Remaining describes the time left before expiry.
type Remaining struct {
	Expired bool   `json:"expired"`
	Display string `json:"display"`
}

// Evaluate reports the remaining lifetime of something expiring at
// expiresAt. Hours and minutes are floored, so 59m59s left reads
// "59 minutes remaining" and 1h0m left reads "1 hours remaining".
func Evaluate(expiresAt, now time.Time) Remaining {
	if !now.Before(expiresAt) {
		return Remaining{Expired: true, Display: ExpiredDisplay}
	}
	diff := expiresAt.Sub(now)
	if hours := int64(diff / time.Hour); hours > 0 {
		return Remaining{Display: fmt.Sprintf("%d hours remaining", hours)}
	}
	minutes := int64((diff % time.Hour) / time.Minute)
	return Remaining{Display: fmt.Sprintf("%d minutes remaining", minutes)}
}

// IsActive reports whether now is strictly before expiresAt.
func IsActive(expiresAt, now time.Time) bool {
	return now.Before(expiresAt)
}
