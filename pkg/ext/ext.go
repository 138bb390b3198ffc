// Package ext provides optional extension functions that go beyond the core
// path function library.
//
// The extension functions live in sub-packages grouped by category:
//   - extstring     – trim, split, join, lastIndexOf, encode, decode, …
//   - extnumeric    – sqrt, exp, ln, log, power, sign, median
//   - extcollection – reverse, chunk, sortBy, minBy, maxBy
//   - extdatetime   – now, today, timeOfDay, yearOf, monthOf, …
//   - extcrypto     – uuid, hash, hmac
//
// # Integration – all extensions at once
//
//	import "github.com/sandrolain/gofhirpath/pkg/ext"
//
//	ev := evaluator.New(ext.WithAll())
//
// # Integration – by category
//
//	ev := evaluator.New(
//	    ext.WithString(),
//	    ext.WithCollection(),
//	)
//
// # Integration – single function from a sub-package
//
//	import "github.com/sandrolain/gofhirpath/pkg/ext/extstring"
//
//	ev := evaluator.New(evaluator.WithFunctions(extstring.Trim()))
//
// Extension functions never shadow a built-in of the same name.
package ext

import (
	"github.com/sandrolain/gofhirpath/pkg/evaluator"
	"github.com/sandrolain/gofhirpath/pkg/ext/extcollection"
	"github.com/sandrolain/gofhirpath/pkg/ext/extcrypto"
	"github.com/sandrolain/gofhirpath/pkg/ext/extdatetime"
	"github.com/sandrolain/gofhirpath/pkg/ext/extnumeric"
	"github.com/sandrolain/gofhirpath/pkg/ext/extstring"
	"github.com/sandrolain/gofhirpath/pkg/ext/extutil"
	"github.com/sandrolain/gofhirpath/pkg/functions"
)

// AllSimple returns all simple extension function definitions.
func AllSimple() []functions.CustomFunctionDef {
	var all []functions.CustomFunctionDef
	all = append(all, extstring.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extcollection.All()...)
	all = append(all, extdatetime.All()...)
	all = append(all, extcrypto.All()...)
	return all
}

// AllAdvanced returns all extension function definitions that evaluate
// their arguments per item.
func AllAdvanced() []functions.AdvancedCustomFunctionDef {
	return extcollection.AllAdvanced()
}

// AllEntries returns all extension function definitions (simple + advanced) as
// [functions.FunctionEntry], suitable for spreading into [evaluator.WithFunctions]:
//
//	evaluator.WithFunctions(ext.AllEntries()...)
func AllEntries() []functions.FunctionEntry {
	simple := AllSimple()
	adv := AllAdvanced()
	out := make([]functions.FunctionEntry, 0, len(simple)+len(adv))
	for _, f := range simple {
		out = append(out, f)
	}
	for _, f := range adv {
		out = append(out, f)
	}
	return out
}

// WithAll returns an EvalOption that registers all extension functions.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(AllEntries()...)
}

// WithString returns an EvalOption for the extended string functions.
func WithString() evaluator.EvalOption {
	return evaluator.WithFunctions(extstring.AllEntries()...)
}

// WithNumeric returns an EvalOption for the extended numeric functions.
func WithNumeric() evaluator.EvalOption {
	return evaluator.WithFunctions(extnumeric.AllEntries()...)
}

// WithCollection returns an EvalOption for the collection functions
// (includes both simple and per-item variants).
func WithCollection() evaluator.EvalOption {
	return evaluator.WithFunctions(extcollection.AllEntries()...)
}

// WithDateTime returns an EvalOption for the date/time functions, reading
// the system clock.
func WithDateTime() evaluator.EvalOption {
	return evaluator.WithFunctions(extdatetime.AllEntries()...)
}

// WithClock is like WithDateTime but reads clock.
func WithClock(clock extdatetime.Clock) evaluator.EvalOption {
	return evaluator.WithFunctions(extutil.Entries(extdatetime.AllAt(clock))...)
}

// WithCrypto returns an EvalOption for the hashing functions.
func WithCrypto() evaluator.EvalOption {
	return evaluator.WithFunctions(extcrypto.AllEntries()...)
}
