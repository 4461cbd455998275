// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// DateLayout is the wire format for applicant-entered dates (date of birth,
// etc.), local-date only.
const DateLayout = "2006-01-02"

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// UTCNowAdd returns the current UTC time plus the given duration
func UTCNowAdd(d time.Duration) time.Time {
	return UTCNow().Add(d)
}

// IsExpired checks if the given time is in the past (expired)
func IsExpired(t time.Time) bool {
	return UTCNow().After(t)
}

// ParseDate parses an applicant-entered YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// YearsBetween returns the number of whole calendar years between from and
// to, using anniversary comparison rather than day counting. Leap-day
// birthdays roll over on March 1 in non-leap years.
func YearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if years < 0 {
		return years
	}
	if from.AddDate(years, 0, 0).After(to) {
		years--
	}
	return years
}

// DhakaNow returns the current time in Bangladesh Standard Time. Falls back
// to the fixed +06:00 offset when the tzdata location is unavailable.
func DhakaNow() time.Time {
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		return time.Now().In(time.FixedZone("BST", 6*60*60))
	}
	return time.Now().In(loc)
}
