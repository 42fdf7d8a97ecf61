// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat tags the shape of a date found in a title.
type DateFormat string

const (
	FormatFullDate    DateFormat = "full_date"
	FormatDateRange   DateFormat = "date_range"
	FormatMonthYear   DateFormat = "month_year"
	FormatAbbreviated DateFormat = "abbreviated"
)

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May, "june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// lookupMonth accepts a month name with or without a trailing period.
func lookupMonth(s string) (time.Month, bool) {
	m, ok := months[strings.TrimRight(strings.ToLower(s), ".")]
	return m, ok
}

type datePattern struct {
	re     *regexp.Regexp
	format DateFormat
}

// Tried in order; the first pattern that matches and yields a real
// calendar date wins.
var datePatterns = []datePattern{
	{regexp.MustCompile(`(?i)^(\d{1,2})\s+([A-Za-z]+\.?)\s+(\d{4})$`), FormatFullDate},
	{regexp.MustCompile(`(?i)^(\d{1,2})-\d{1,2}\s+([A-Za-z]+\.?)\s+(\d{4})$`), FormatDateRange},
	{regexp.MustCompile(`(?i)^([A-Za-z]+\.?)\s+(\d{4})$`), FormatMonthYear},
	{regexp.MustCompile(`(?i)^(\d{1,2})\s+([A-Za-z]+\.?)\s+(\d{4})$`), FormatAbbreviated},
}

// ParseDateString parses "9 July 2019", "9-10 July 2019" or "March 2017".
// It returns an ISO date ("2019-07-09", or "2017-03" for month-year) and
// the format tag, or empty strings when nothing parses.
func ParseDateString(s string) (string, DateFormat) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if p.format == FormatMonthYear {
			month, ok := lookupMonth(m[1])
			if !ok {
				continue
			}
			year, _ := strconv.Atoi(m[2])
			if year < 1 {
				continue
			}
			return fmt.Sprintf("%04d-%02d", year, int(month)), p.format
		}

		month, ok := lookupMonth(m[2])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if !validDate(year, month, day) {
			continue
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), p.format
	}
	return "", ""
}

func validDate(year int, month time.Month, day int) bool {
	if year < 1 || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && t.Month() == month
}

const dateExpr = `(?:\d{1,2}[-–]\d{1,2}\s+)?(?:\d{1,2}\s+)?[A-Za-z]+\.?\s+\d{4}`

var (
	leadingDateRe  = regexp.MustCompile(`^(` + dateExpr + `)[,.]?\s+`)
	trailingDateRe = regexp.MustCompile(`\s*\((` + dateExpr + `)\)\s*$`)
	middleDateRe   = regexp.MustCompile(`[-:]\s*(` + dateExpr + `)\s*[-:]`)
	doubleSepRe    = regexp.MustCompile(`[-:]\s*[-:]`)
)

// ExtractDateFromTitle removes a date from the start of a title ("9 July
// 2019, Title"), from a trailing parenthetical ("Title (March 2017)") or
// from between separators ("Event: 15 June 2018: Subtitle"). It returns
// the stripped title, the ISO date and its format. When no date parses the
// title is returned unchanged with empty date and format.
func ExtractDateFromTitle(title string) (string, string, DateFormat) {
	if title == "" {
		return title, "", ""
	}

	if m := leadingDateRe.FindStringSubmatchIndex(title); m != nil {
		if date, format := ParseDateString(title[m[2]:m[3]]); date != "" {
			return strings.TrimSpace(title[m[1]:]), date, format
		}
	}

	if m := trailingDateRe.FindStringSubmatchIndex(title); m != nil {
		if date, format := ParseDateString(title[m[2]:m[3]]); date != "" {
			return strings.TrimSpace(title[:m[0]]), date, format
		}
	}

	if m := middleDateRe.FindStringSubmatchIndex(title); m != nil {
		if date, format := ParseDateString(title[m[2]:m[3]]); date != "" {
			stripped := title[:m[2]] + title[m[3]:]
			stripped = doubleSepRe.ReplaceAllString(stripped, ":")
			return strings.TrimSpace(stripped), date, format
		}
	}

	return title, "", ""
}
