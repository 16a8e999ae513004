package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reThousandDot   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	reThousandComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	reCurrency      = regexp.MustCompile(`(?i)(€|eur[o]?|czk|kč)`)
)

// ParseDecimal converts a vendor-formatted amount to a float. Comma is
// accepted as the decimal separator, currency markers and grouping
// spaces are stripped first.
func ParseDecimal(input string) (float64, bool) {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	s = reCurrency.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	compact := strings.ReplaceAll(s, " ", "")
	switch {
	case reThousandDot.MatchString(compact):
		compact = strings.ReplaceAll(compact, ".", "")
	case reThousandComma.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", "")
	case strings.Contains(compact, ",") && !strings.Contains(compact, "."):
		compact = strings.ReplaceAll(compact, ",", ".")
	}

	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006",
	"2006-01-02",
}

func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
