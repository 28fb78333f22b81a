package codes

import "fmt"

// Date is a Gregorian calendar day, stored as the number of days since
// 1979-12-31 — the same epoch the binary table files use for their
// date_range fields, so table lookups need no conversion at parse time.
type Date struct {
	offset int32
}

// epochDaysFromCivil is the number of days from 1970-01-01 (day 0 of
// daysFromCivil/civilFromDays) to 1979-12-31, used to translate between our
// stored offset and (year, month, day) via the Howard Hinnant
// civil_from_days / days_from_civil algorithm.
const epochDaysFromCivil = 3651

// NewDate constructs a Date from a gregorian year/month/day. Returns the
// zero Date and false if the date is not representable (month/day out of
// range).
func NewDate(year int, month, day uint8) (Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}

	return Date{offset: int32(daysFromCivil(year, int(month), int(day)) - epochDaysFromCivil)}, true
}

// DateFromOffset constructs a Date directly from a raw day offset since
// 1979-12-31, as read from a table pointer's date_range field.
func DateFromOffset(offset int32) Date {
	return Date{offset: offset}
}

// Offset returns the raw day-since-1979-12-31 offset.
func (d Date) Offset() int32 {
	return d.offset
}

// IsZero reports whether d is the zero Date (no date set).
func (d Date) IsZero() bool {
	return d.offset == 0
}

// Sub returns the number of days between d and other (d - other).
func (d Date) Sub(other Date) int {
	return int(d.offset) - int(other.offset)
}

// Compare returns -1, 0 or 1 according to whether d is before, equal to, or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.offset < other.offset:
		return -1
	case d.offset > other.offset:
		return 1
	default:
		return 0
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// civil returns the (year, month, day) this Date represents.
func (d Date) civil() (year, month, day int) {
	return civilFromDays(int(d.offset) + epochDaysFromCivil)
}

// Year returns the calendar year.
func (d Date) Year() int { y, _, _ := d.civil(); return y }

// Month returns the calendar month, 1-12.
func (d Date) Month() uint8 { _, m, _ := d.civil(); return uint8(m) } //nolint:gosec

// Day returns the calendar day of month, 1-31.
func (d Date) Day() uint8 { _, _, dd := d.civil(); return uint8(dd) } //nolint:gosec

// String renders the date as DD/MM/YYYY, matching the ATIH table dumps.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	y, m, day := d.civil()

	return fmt.Sprintf("%02d/%02d/%04d", day, m, y)
}

// daysFromCivil and civilFromDays implement Howard Hinnant's constant-time,
// allocation-free proleptic-Gregorian <-> day-count conversion. They avoid a
// dependency on the standard library's Unix-epoch-only time.Date, which
// cannot represent the pre-1970 dates that occasionally appear in table
// build metadata.
func daysFromCivil(y, m, d int) int {
	y -= boolToInt(m <= 2)
	era := divFloor(y, 400)
	yoe := y - era*400

	mp := m - 3
	if mp < 0 {
		mp += 12
	}

	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy

	return era*146097 + doe - 719468
}

func civilFromDays(z int) (year, month, day int) {
	z += 719468
	era := divFloor(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}

	if m <= 2 {
		y++
	}

	return y, m, d
}

func divFloor(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
