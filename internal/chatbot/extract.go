package chatbot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the wire format every date field is normalized to.
const dateLayout = "02/01/2006"

// Canonical blood type tokens, longest first so "AB+" is not shadowed
// by "B+".
var bloodTypeTokens = []string{"AB+", "AB-", "A+", "A-", "B+", "B-", "O+", "O-"}

// Verbose synonyms per canonical type, again AB before A and B.
var bloodTypeSynonyms = []struct {
	canonical string
	patterns  []string
}{
	{"AB+", []string{"AB POSITIVE", "AB +VE", "AB POS"}},
	{"AB-", []string{"AB NEGATIVE", "AB -VE", "AB NEG"}},
	{"A+", []string{"A POSITIVE", "A +VE", "A POS"}},
	{"A-", []string{"A NEGATIVE", "A -VE", "A NEG"}},
	{"B+", []string{"B POSITIVE", "B +VE", "B POS"}},
	{"B-", []string{"B NEGATIVE", "B -VE", "B NEG"}},
	{"O+", []string{"O POSITIVE", "O +VE", "O POS"}},
	{"O-", []string{"O NEGATIVE", "O -VE", "O NEG"}},
}

// ExtractBloodType finds one of the 8 canonical blood group tokens in
// the message, falling back to verbose synonyms ("A positive",
// "a +ve"). Returns the canonical token.
func ExtractBloodType(message string) (string, bool) {
	upper := strings.ToUpper(message)
	for _, tok := range bloodTypeTokens {
		if strings.Contains(upper, tok) {
			return tok, true
		}
	}
	for _, syn := range bloodTypeSynonyms {
		for _, p := range syn.patterns {
			if strings.Contains(upper, p) {
				return syn.canonical, true
			}
		}
	}
	return "", false
}

var dateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)

// ExtractDate resolves "today"/"tomorrow" or a D/M/YYYY-style pattern
// to a DD/MM/YYYY string.
func ExtractDate(message string) (string, bool) {
	return extractDateAt(message, time.Now())
}

func extractDateAt(message string, now time.Time) (string, bool) {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "today") {
		return now.Format(dateLayout), true
	}
	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1).Format(dateLayout), true
	}
	m := dateRe.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%02d/%02d/%s", day, month, m[3]), true
}

var (
	integerRe = regexp.MustCompile(`\d+`)
	decimalRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	timeRe    = regexp.MustCompile(`(?i)\d{1,2}:\d{2}(?:\s*[AP]M)?`)
)

// ExtractInteger returns the first run of digits in the message.
func ExtractInteger(message string) (string, bool) {
	m := integerRe.FindString(message)
	return m, m != ""
}

// ExtractDecimal returns the first integer or decimal number in the
// message.
func ExtractDecimal(message string) (string, bool) {
	m := decimalRe.FindString(message)
	return m, m != ""
}

// ExtractTime returns the first HH:MM-shaped substring, with any AM/PM
// suffix attached. The result still has to pass ValidateTime.
func ExtractTime(message string) (string, bool) {
	m := timeRe.FindString(message)
	return strings.ToUpper(strings.TrimSpace(m)), m != ""
}

// ExtractFreeText accepts the trimmed message verbatim when it is
// longer than minLen characters.
func ExtractFreeText(message string, minLen int) (string, bool) {
	trimmed := strings.TrimSpace(message)
	if len(trimmed) <= minLen {
		return "", false
	}
	return trimmed, true
}

// Opportunistic scanners. Unlike the stage extractors above these only
// fire on contextual patterns, so a verbose opening message can fill
// several fields at once without every free-text field swallowing the
// whole sentence. The patterns are heuristic and can misfire on
// ambiguous phrasing; a field already collected is never overwritten.
var (
	hospitalScanRe = regexp.MustCompile(`\b((?:[A-Z][\w.'-]*\s+){1,5}(?:[Hh]ospital|[Mm]edical [Cc]ollege|[Mm]edical [Cc]ent(?:er|re)|[Cc]linic))\b`)
	locationScanRe = regexp.MustCompile(`(?i)\b(?:located (?:at|in)|location (?:is|:))\s+([A-Za-z][\w ,.'-]{3,})`)
	zoneScanRe     = regexp.MustCompile(`(?i)\b([A-Za-z][\w]{2,})\s+zone\b`)
	problemScanRe  = regexp.MustCompile(`(?i)\b(?:suffering from|diagnosed with|due to|because of)\s+([A-Za-z][\w '-]{3,})`)
	bagScanRe      = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:bags?|units?)\b`)
)

func scanHospital(message string) (string, bool) {
	m := hospitalScanRe.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func scanLocation(message string) (string, bool) {
	m := locationScanRe.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func scanZone(message string) (string, bool) {
	m := zoneScanRe.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func scanPatientProblem(message string) (string, bool) {
	m := problemScanRe.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func scanBagCount(message string) (string, bool) {
	m := bagScanRe.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return m[1], true
}
