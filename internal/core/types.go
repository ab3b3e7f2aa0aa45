package core

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for all dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without time-of-day. It is comparable and safe to
// use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the normalized date for y-m-d.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysSince returns the whole number of calendar days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Time().Sub(other.Time()).Hours() / 24)
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// SameMonth reports whether d and other fall in the same (year, month).
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD date.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Asset is a tradable symbol such as "SPY".
type Asset string

// AssetPair names the two assets a trend portfolio switches between.
type AssetPair struct {
	Risk Asset
	Safe Asset
}

// DefaultPair is the S&P 500 ETF against the 1-3 month T-bill ETF.
var DefaultPair = AssetPair{Risk: "SPY", Safe: "BIL"}

// Contains reports whether a is one of the pair's assets.
func (p AssetPair) Contains(a Asset) bool {
	return a == p.Risk || a == p.Safe
}

// Validate checks that both assets are set and distinct.
func (p AssetPair) Validate() error {
	if p.Risk == "" || p.Safe == "" {
		return Errorf(ErrInvalidInput, "asset pair requires risk and safe symbols")
	}
	if p.Risk == p.Safe {
		return Errorf(ErrInvalidInput, "risk and safe assets must differ, both are %s", p.Risk)
	}
	return nil
}

// PriceSeries maps trading days to daily close prices for one asset.
type PriceSeries map[Date]float64

// Close returns the close for d or ErrMissingPrice.
func (s PriceSeries) Close(asset Asset, d Date) (float64, error) {
	v, ok := s[d]
	if !ok {
		return 0, Errorf(ErrMissingPrice, "%s has no price on %s", asset, d)
	}
	return v, nil
}
