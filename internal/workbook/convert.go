package workbook

// convert.go turns raw cell text into numbers and dates.
//
// Cells arrive in whatever shape the workbook author typed them:
//   - Excel serial dates or text dates in US, ISO and long formats
//   - Currency symbols and thousand separators in amounts
//   - Accounting negatives written as (123.45)
//   - Percentages written as 85%
//   - Excel formula prefixes (="value")

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrNotNumber is returned when a non-blank cell does not hold a number.
var ErrNotNumber = errors.New("not a number")

// ErrNotDate is returned when a non-blank cell does not hold a date.
var ErrNotDate = errors.New("not a date")

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are moved
// back a century.
var TwoDigitYearPivot = 20

// Serial dates outside this range are treated as plain numbers.
const (
	minSerialDate = 1     // 1900-01-01
	maxSerialDate = 73050 // 2099-12-31
)

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02T15:04:05", "2006-01-02 15:04:05",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006", "02-Jan-2006", "2-Jan-06",
		"20060102",
	}
)

// ParseNumber converts a cell to a float64.
// Blank cells return (0, false, nil); cells that hold text return ErrNotNumber.
func ParseNumber(s string) (float64, bool, error) {
	s = CleanCell(s)
	if s == "" || s == "-" {
		return 0, false, nil
	}
	raw := s

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")

	if strings.HasPrefix(s, "-") && negative {
		return 0, false, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}

	if !numericRegex.MatchString(s) {
		return 0, false, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}

	if negative {
		f = -f
	}
	return f, true, nil
}

// ParseDate converts a cell to a date at midnight UTC.
// Numeric cells are read as Excel serial dates (1900 date system).
func ParseDate(s string) (time.Time, error) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrNotDate)
	}

	if numericRegex.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err == nil && serial >= minSerialDate && serial <= maxSerialDate {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				return truncateDay(t), nil
			}
		}
		if len(s) != len("20060102") {
			return time.Time{}, fmt.Errorf("%w: %q", ErrNotDate, s)
		}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return truncateDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrNotDate, s)
}

// WeekEnding returns the Saturday on or after t, at midnight UTC.
func WeekEnding(t time.Time) time.Time {
	t = truncateDay(t)
	offset := (int(time.Saturday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset)
}

// ParseWeek parses a date cell and normalizes it to its week ending.
func ParseWeek(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return WeekEnding(t), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
