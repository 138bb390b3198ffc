// Package extdatetime provides date/time functions beyond the core library:
// the current date and time, and component extraction from temporal values.
//
// The clock-reading functions take a [Clock] so that evaluations can be
// pinned to a fixed instant in tests.
package extdatetime

import (
	"context"
	"time"

	"github.com/sandrolain/gofhirpath/pkg/ext/extutil"
	"github.com/sandrolain/gofhirpath/pkg/functions"
	"github.com/sandrolain/gofhirpath/pkg/value"
)

// Clock returns the current instant.
type Clock func() time.Time

// All returns all date/time function definitions reading the system clock.
func All() []functions.CustomFunctionDef {
	return AllAt(time.Now)
}

// AllAt is like All but reads the given clock.
func AllAt(clock Clock) []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Now(clock),
		Today(clock),
		TimeOfDay(clock),
		YearOf(),
		MonthOf(),
		DayOf(),
		HourOf(),
		MinuteOf(),
		SecondOf(),
		MillisecondOf(),
	}
}

// AllEntries returns all date/time function definitions as [functions.FunctionEntry].
func AllEntries() []functions.FunctionEntry {
	return extutil.Entries(All())
}

func nullary(name string, fn func() value.Value) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: name,
		Fn: func(context.Context, value.Sequence, ...value.Sequence) (value.Sequence, error) {
			return value.Sequence{fn()}, nil
		},
	}
}

// Now returns the definition for now(): the current DateTime to the millisecond.
func Now(clock Clock) functions.CustomFunctionDef {
	return nullary("now", func() value.Value {
		return value.NewDateTime(clock().Truncate(time.Millisecond), value.PrecisionMillisecond)
	})
}

// Today returns the definition for today(): the current Date in the clock's zone.
func Today(clock Clock) functions.CustomFunctionDef {
	return nullary("today", func() value.Value {
		t := clock()
		return value.NewDate(t.Year(), t.Month(), t.Day())
	})
}

// TimeOfDay returns the definition for timeOfDay().
func TimeOfDay(clock Clock) functions.CustomFunctionDef {
	return nullary("timeOfDay", func() value.Value {
		t := clock()
		ms := t.Nanosecond() / int(time.Millisecond) * int(time.Millisecond)
		return value.NewTime(t.Hour(), t.Minute(), t.Second(), ms, value.PrecisionMillisecond)
	})
}

// component builds a function extracting part of a Date, DateTime or Time.
// A value not precise enough to carry the component yields empty.
func component(name string, prec value.Precision, get func(time.Time) int) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name: name,
		Fn: func(_ context.Context, focus value.Sequence, _ ...value.Sequence) (value.Sequence, error) {
			v, ok, err := extutil.Single(name, focus)
			if err != nil || !ok {
				return nil, err
			}
			var (
				t   time.Time
				has value.Precision
			)
			switch x := v.(type) {
			case value.Date:
				t, has = x.Time(), x.Precision()
			case value.DateTime:
				t, has = x.Time(), x.Precision()
			case value.Time:
				if prec < value.PrecisionHour {
					return nil, nil
				}
				t, has = x.Clock(), x.Precision()
			default:
				return nil, extutil.Errorf(name, "expected a Date, DateTime or Time, got %s", v.TypeName())
			}
			if has < prec {
				return nil, nil
			}
			return value.Sequence{value.Integer(get(t))}, nil
		},
	}
}

// YearOf returns the definition for yearOf().
func YearOf() functions.CustomFunctionDef {
	return component("yearOf", value.PrecisionYear, time.Time.Year)
}

// MonthOf returns the definition for monthOf().
func MonthOf() functions.CustomFunctionDef {
	return component("monthOf", value.PrecisionMonth, func(t time.Time) int { return int(t.Month()) })
}

// DayOf returns the definition for dayOf().
func DayOf() functions.CustomFunctionDef {
	return component("dayOf", value.PrecisionDay, time.Time.Day)
}

// HourOf returns the definition for hourOf().
func HourOf() functions.CustomFunctionDef {
	return component("hourOf", value.PrecisionHour, time.Time.Hour)
}

// MinuteOf returns the definition for minuteOf().
func MinuteOf() functions.CustomFunctionDef {
	return component("minuteOf", value.PrecisionMinute, time.Time.Minute)
}

// SecondOf returns the definition for secondOf().
func SecondOf() functions.CustomFunctionDef {
	return component("secondOf", value.PrecisionSecond, time.Time.Second)
}

// MillisecondOf returns the definition for millisecondOf().
func MillisecondOf() functions.CustomFunctionDef {
	return component("millisecondOf", value.PrecisionMillisecond, func(t time.Time) int {
		return t.Nanosecond() / int(time.Millisecond)
	})
}
