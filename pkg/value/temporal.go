package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandrolain/gofhirpath/pkg/types"
)

// Precision is the finest component present in a partial date or time.
type Precision int

// Temporal precisions, coarsest first.
const (
	PrecisionYear Precision = iota + 1
	PrecisionMonth
	PrecisionDay
	PrecisionHour
	PrecisionMinute
	PrecisionSecond
	PrecisionMillisecond
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	case PrecisionHour:
		return "hour"
	case PrecisionMinute:
		return "minute"
	case PrecisionSecond:
		return "second"
	case PrecisionMillisecond:
		return "millisecond"
	}
	return "unknown"
}

// Date is a calendar date with year, month or day precision.
type Date struct {
	t    time.Time
	prec Precision
}

// DateTime is a point in time with any precision from year to millisecond.
type DateTime struct {
	t     time.Time
	prec  Precision
	hasTZ bool
}

// Time is a time of day with hour to millisecond precision.
type Time struct {
	t    time.Time
	prec Precision
}

// NewDate returns a day-precision date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), prec: PrecisionDay}
}

// NewDateTime returns a DateTime of the given precision from t, keeping t's zone.
func NewDateTime(t time.Time, prec Precision) DateTime {
	return DateTime{t: t, prec: prec, hasTZ: true}
}

// NewTime returns a time of day of the given precision.
func NewTime(hour, minute, sec, nsec int, prec Precision) Time {
	return Time{t: time.Date(0, 1, 1, hour, minute, sec, nsec, time.UTC), prec: prec}
}

func (Date) TypeName() string     { return TypeDate }
func (DateTime) TypeName() string { return TypeDateTime }
func (Time) TypeName() string     { return TypeTime }

// Time returns the instant of the date at midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Precision returns the finest component of d.
func (d Date) Precision() Precision { return d.prec }

// Time returns the underlying instant.
func (dt DateTime) Time() time.Time { return dt.t }

// Precision returns the finest component of dt.
func (dt DateTime) Precision() Precision { return dt.prec }

// HasTimeZone reports whether dt carried an explicit offset.
func (dt DateTime) HasTimeZone() bool { return dt.hasTZ }

// Precision returns the finest component of t.
func (t Time) Precision() Precision { return t.prec }

// Clock returns the time of day on the zero date.
func (t Time) Clock() time.Time { return t.t }

func (d Date) String() string {
	return formatDate(d.t, d.prec)
}

func (dt DateTime) String() string {
	s := formatDate(dt.t, dt.prec)
	if dt.prec <= PrecisionDay {
		return s
	}
	s += "T" + formatClock(dt.t, dt.prec)
	if dt.hasTZ {
		s += dt.t.Format("Z07:00")
	}
	return s
}

func (t Time) String() string {
	return formatClock(t.t, t.prec)
}

func formatDate(t time.Time, p Precision) string {
	switch p {
	case PrecisionYear:
		return fmt.Sprintf("%04d", t.Year())
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", t.Year(), t.Month())
	}
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day())
}

func formatClock(t time.Time, p Precision) string {
	switch p {
	case PrecisionHour:
		return fmt.Sprintf("%02d", t.Hour())
	case PrecisionMinute:
		return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	case PrecisionSecond:
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}

// ToDateTime widens a date to a DateTime of the same precision without time zone.
func (d Date) ToDateTime() DateTime {
	return DateTime{t: d.t, prec: d.prec}
}

// ParseDate parses YYYY, YYYY-MM or YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	sc := temporalScanner{src: s}
	t, prec, ok := sc.date()
	if !ok || sc.pos != len(s) {
		return Date{}, badTemporal("date", s)
	}
	return Date{t: t, prec: prec}, nil
}

// ParseDateTime parses a date, optionally followed by "T", a time of day and
// a "Z" or "±hh:mm" offset.
func ParseDateTime(s string) (DateTime, error) {
	sc := temporalScanner{src: s}
	t, prec, ok := sc.date()
	if !ok {
		return DateTime{}, badTemporal("dateTime", s)
	}
	dt := DateTime{t: t, prec: prec}
	if sc.pos == len(s) {
		return dt, nil
	}
	if s[sc.pos] != 'T' || prec != PrecisionDay {
		return DateTime{}, badTemporal("dateTime", s)
	}
	sc.pos++
	if sc.pos == len(s) {
		return dt, nil
	}
	h, m, sec, nsec, cprec, ok := sc.clock()
	if !ok {
		return DateTime{}, badTemporal("dateTime", s)
	}
	loc := time.UTC
	if sc.pos < len(s) {
		loc, ok = sc.zone()
		if !ok || sc.pos != len(s) {
			return DateTime{}, badTemporal("dateTime", s)
		}
		dt.hasTZ = true
	}
	dt.t = time.Date(t.Year(), t.Month(), t.Day(), h, m, sec, nsec, loc)
	dt.prec = cprec
	return dt, nil
}

// ParseTime parses hh, hh:mm, hh:mm:ss or hh:mm:ss.fff.
func ParseTime(s string) (Time, error) {
	sc := temporalScanner{src: s}
	h, m, sec, nsec, prec, ok := sc.clock()
	if !ok || sc.pos != len(s) {
		return Time{}, badTemporal("time", s)
	}
	return Time{t: time.Date(0, 1, 1, h, m, sec, nsec, time.UTC), prec: prec}, nil
}

func badTemporal(kind, s string) error {
	return types.Errorf(types.ErrCannotConvert, -1, "invalid %s %q", kind, s)
}

type temporalScanner struct {
	src string
	pos int
}

func (sc *temporalScanner) digits(n int) (int, bool) {
	if sc.pos+n > len(sc.src) {
		return 0, false
	}
	part := sc.src[sc.pos : sc.pos+n]
	for i := 0; i < n; i++ {
		if part[i] < '0' || part[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(part)
	if err != nil {
		return 0, false
	}
	sc.pos += n
	return v, true
}

func (sc *temporalScanner) peek(c byte) bool {
	return sc.pos < len(sc.src) && sc.src[sc.pos] == c
}

func (sc *temporalScanner) date() (time.Time, Precision, bool) {
	year, ok := sc.digits(4)
	if !ok {
		return time.Time{}, 0, false
	}
	month, day, prec := 1, 1, PrecisionYear
	if sc.peek('-') {
		sc.pos++
		if month, ok = sc.digits(2); !ok || month < 1 || month > 12 {
			return time.Time{}, 0, false
		}
		prec = PrecisionMonth
		if sc.peek('-') {
			sc.pos++
			if day, ok = sc.digits(2); !ok || day < 1 || day > daysIn(year, time.Month(month)) {
				return time.Time{}, 0, false
			}
			prec = PrecisionDay
		}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), prec, true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (sc *temporalScanner) clock() (h, m, s, nsec int, prec Precision, ok bool) {
	if h, ok = sc.digits(2); !ok || h > 23 {
		return 0, 0, 0, 0, 0, false
	}
	prec = PrecisionHour
	if !sc.peek(':') {
		return h, 0, 0, 0, prec, true
	}
	sc.pos++
	if m, ok = sc.digits(2); !ok || m > 59 {
		return 0, 0, 0, 0, 0, false
	}
	prec = PrecisionMinute
	if !sc.peek(':') {
		return h, m, 0, 0, prec, true
	}
	sc.pos++
	if s, ok = sc.digits(2); !ok || s > 59 {
		return 0, 0, 0, 0, 0, false
	}
	prec = PrecisionSecond
	if !sc.peek('.') {
		return h, m, s, 0, prec, true
	}
	sc.pos++
	start := sc.pos
	for sc.pos < len(sc.src) && sc.src[sc.pos] >= '0' && sc.src[sc.pos] <= '9' {
		sc.pos++
	}
	frac := sc.src[start:sc.pos]
	if frac == "" {
		return 0, 0, 0, 0, 0, false
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	frac += strings.Repeat("0", 9-len(frac))
	nsec, _ = strconv.Atoi(frac)
	return h, m, s, nsec, PrecisionMillisecond, true
}

func (sc *temporalScanner) zone() (*time.Location, bool) {
	if sc.peek('Z') {
		sc.pos++
		return time.UTC, true
	}
	sign := 1
	switch {
	case sc.peek('+'):
	case sc.peek('-'):
		sign = -1
	default:
		return nil, false
	}
	sc.pos++
	hh, ok := sc.digits(2)
	if !ok || hh > 14 || !sc.peek(':') {
		return nil, false
	}
	sc.pos++
	mm, ok := sc.digits(2)
	if !ok || mm > 59 {
		return nil, false
	}
	offset := sign * (hh*3600 + mm*60)
	if offset == 0 {
		return time.UTC, true
	}
	return time.FixedZone("", offset), true
}

// compareTemporal compares two instants component by component down to the
// finest precision both carry. ok is false when one side stops before the
// other at a component where they are still equal.
func compareTemporal(a time.Time, ap Precision, b time.Time, bp Precision) (int, bool) {
	if ap > PrecisionDay && bp > PrecisionDay {
		a, b = a.UTC(), b.UTC()
	}
	if ap == PrecisionMillisecond {
		ap = PrecisionSecond
	}
	if bp == PrecisionMillisecond {
		bp = PrecisionSecond
	}
	for p := PrecisionYear; p <= PrecisionSecond; p++ {
		aHas, bHas := ap >= p, bp >= p
		if !aHas && !bHas {
			return 0, true
		}
		if aHas != bHas {
			return 0, false
		}
		if c := cmpComponent(a, b, p); c != 0 {
			return c, true
		}
	}
	return 0, true
}

func cmpComponent(a, b time.Time, p Precision) int {
	var x, y int
	switch p {
	case PrecisionYear:
		x, y = a.Year(), b.Year()
	case PrecisionMonth:
		x, y = int(a.Month()), int(b.Month())
	case PrecisionDay:
		x, y = a.Day(), b.Day()
	case PrecisionHour:
		x, y = a.Hour(), b.Hour()
	case PrecisionMinute:
		x, y = a.Minute(), b.Minute()
	default:
		x, y = a.Second()*int(time.Second)+a.Nanosecond(), b.Second()*int(time.Second)+b.Nanosecond()
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// addDuration shifts t by amount units of a calendar or time unit.
// Calendar units ignore any fractional part.
func addDuration(t time.Time, amount Decimal, unit string) (time.Time, error) {
	whole, _ := amount.Truncate().Int64()
	n := int(whole)
	switch unit {
	case "a":
		return t.AddDate(n, 0, 0), nil
	case "mo":
		return t.AddDate(0, n, 0), nil
	case "wk":
		return t.AddDate(0, 0, 7*n), nil
	case "d":
		return t.AddDate(0, 0, n), nil
	case "h":
		return t.Add(time.Duration(n) * time.Hour), nil
	case "min":
		return t.Add(time.Duration(n) * time.Minute), nil
	case "s":
		return t.Add(time.Duration(n) * time.Second), nil
	case "ms":
		return t.Add(time.Duration(n) * time.Millisecond), nil
	}
	return t, types.Errorf(types.ErrArithmetic, -1, "%q is not a time unit", unit)
}
