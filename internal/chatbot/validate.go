package chatbot

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidateBloodBags accepts whole bag counts from 1 to 10.
func ValidateBloodBags(v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return n >= 1 && n <= 10
}

// ValidateHemoglobin accepts values from 7.0 to 20.0 g/dL.
func ValidateHemoglobin(v string) bool {
	x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return false
	}
	return x >= 7.0 && x <= 20.0
}

// ValidateDate accepts a DD/MM/YYYY date between today and 30 days from
// now, inclusive.
func ValidateDate(v string) bool {
	return validateDateAt(v, time.Now())
}

func validateDateAt(v string, now time.Time) bool {
	d, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	return !d.Before(today) && !d.After(today.AddDate(0, 0, 30))
}

var (
	time24Re = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
	time12Re = regexp.MustCompile(`^(\d{1,2}):([0-5]\d)\s*(AM|PM)$`)
)

// ValidateTime accepts 24-hour HH:MM or 12-hour H:MM AM/PM. A bare
// "2:30" with no suffix is read as 24-hour and accepted; "13:30 PM" is
// rejected because 13 is not a 12-hour clock hour.
func ValidateTime(v string) bool {
	t := strings.ToUpper(strings.TrimSpace(v))
	if strings.HasSuffix(t, "AM") || strings.HasSuffix(t, "PM") {
		m := time12Re.FindStringSubmatch(t)
		if m == nil {
			return false
		}
		h, _ := strconv.Atoi(m[1])
		return h >= 1 && h <= 12
	}
	return time24Re.MatchString(t)
}
