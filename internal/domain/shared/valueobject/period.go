package valueobject

import (
	"fmt"
	"time"
)

// FiscalPeriod identifies a fiscal-year/period combination.
// Periods are calendar months (1..12); the zero value is invalid.
type FiscalPeriod struct {
	Year   int `json:"year"`
	Period int `json:"period"`
}

// NewFiscalPeriod creates a fiscal period after validating its parts
func NewFiscalPeriod(year, period int) (FiscalPeriod, error) {
	if year < 1900 || year > 9999 {
		return FiscalPeriod{}, fmt.Errorf("invalid fiscal year: %d", year)
	}
	if period < 1 || period > 12 {
		return FiscalPeriod{}, fmt.Errorf("invalid fiscal period: %d", period)
	}
	return FiscalPeriod{Year: year, Period: period}, nil
}

// FiscalPeriodOf returns the fiscal period a posting date falls into
func FiscalPeriodOf(date time.Time) FiscalPeriod {
	return FiscalPeriod{Year: date.Year(), Period: int(date.Month())}
}

// Key returns a sortable numeric key (year*100 + period)
func (p FiscalPeriod) Key() int {
	return p.Year*100 + p.Period
}

// IsZero returns true for the zero value
func (p FiscalPeriod) IsZero() bool {
	return p.Year == 0 && p.Period == 0
}

// Previous returns the preceding fiscal period
func (p FiscalPeriod) Previous() FiscalPeriod {
	if p.Period == 1 {
		return FiscalPeriod{Year: p.Year - 1, Period: 12}
	}
	return FiscalPeriod{Year: p.Year, Period: p.Period - 1}
}

// Next returns the following fiscal period
func (p FiscalPeriod) Next() FiscalPeriod {
	if p.Period == 12 {
		return FiscalPeriod{Year: p.Year + 1, Period: 1}
	}
	return FiscalPeriod{Year: p.Year, Period: p.Period + 1}
}

// Before reports whether p precedes other chronologically
func (p FiscalPeriod) Before(other FiscalPeriod) bool {
	return p.Key() < other.Key()
}

// String returns the period formatted as YYYY-PP
func (p FiscalPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Period)
}
