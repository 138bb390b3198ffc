package evaluator

import (
	"regexp"
	"sync"
)

// regexCache is a process-wide cache of compiled patterns used by matches()
// and replaceMatches(). *regexp.Regexp is safe for concurrent use and no
// entry is mutated after insertion.
var regexCache sync.Map // map[string]*regexp.Regexp

// getOrCompileRegex retrieves or compiles a regex pattern.
func getOrCompileRegex(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// mustCompileRegex compiles a static pattern via the shared regex cache, panicking on error.
func mustCompileRegex(pattern string) *regexp.Regexp {
	re, err := getOrCompileRegex(pattern)
	if err != nil {
		panic("evaluator: failed to compile static regex: " + err.Error())
	}
	return re
}
