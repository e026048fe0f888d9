package fix

import (
	"fmt"
	"time"
)

// Layouts of the FIX date and time types. time.Parse accepts a fractional
// second after the seconds field even when the layout omits it, which covers
// the millisecond and finer variants.
const (
	layoutUTCTimestamp = "20060102-15:04:05"
	layoutUTCTimeOnly  = "15:04:05"
	layoutDate         = "20060102"
	layoutMonthYear    = "200601"
)

// validateFormat checks the textual form of date and time typed values.
// Types without a fixed form are accepted as is.
func validateFormat(t ValueType, value string) error {
	switch t {
	case TypeUTCTimestamp:
		if _, err := time.Parse(layoutUTCTimestamp, value); err != nil {
			return fmt.Errorf("invalid UTCTimestamp '%s'", value)
		}
	case TypeUTCTimeOnly:
		if _, err := time.Parse(layoutUTCTimeOnly, value); err != nil {
			return fmt.Errorf("invalid UTCTimeOnly '%s'", value)
		}
	case TypeUTCDateOnly, TypeLocalMktDate:
		if len(value) != len(layoutDate) {
			return fmt.Errorf("invalid date '%s'", value)
		}
		if _, err := time.Parse(layoutDate, value); err != nil {
			return fmt.Errorf("invalid date '%s'", value)
		}
	case TypeMonthYear:
		return validateMonthYear(value)
	}
	return nil
}

// validateMonthYear accepts YYYYMM, YYYYMMDD and YYYYMMwN.
func validateMonthYear(value string) error {
	if len(value) < len(layoutMonthYear) {
		return fmt.Errorf("invalid MonthYear '%s'", value)
	}
	if _, err := time.Parse(layoutMonthYear, value[:6]); err != nil {
		return fmt.Errorf("invalid MonthYear '%s'", value)
	}
	switch rest := value[6:]; len(rest) {
	case 0:
		return nil
	case 2:
		if rest[0] == 'w' && rest[1] >= '1' && rest[1] <= '5' {
			return nil
		}
		if _, err := time.Parse(layoutDate, value); err == nil {
			return nil
		}
	}
	return fmt.Errorf("invalid MonthYear '%s'", value)
}

// validateAlpha checks that value is exactly n ASCII letters.
func validateAlpha(value string, n int) error {
	if len(value) != n {
		return fmt.Errorf("expected %d characters, got %d", n, len(value))
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return fmt.Errorf("non-alphabetic character at position %d", i)
		}
	}
	return nil
}
