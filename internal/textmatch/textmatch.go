// Package textmatch implements the case-insensitive text matching shared by
// in-memory predicate evaluation and the SQLite text_match function.
//
// Literal patterns match as substrings after Unicode case folding and NFC
// normalization. Regex patterns use RE2 syntax and are always compiled
// case-insensitively.
package textmatch

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Mode selects how a pattern is interpreted.
type Mode int64

const (
	Literal Mode = 0
	Regex   Mode = 1
)

func (m Mode) String() string {
	if m == Regex {
		return "regex"
	}
	return "literal"
}

var regexCache sync.Map // pattern -> *regexp.Regexp

// Fold normalizes s for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Compile validates and caches a regex pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("(?i)" + norm.NFC.String(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// Match reports whether value matches pattern in the given mode. An empty
// literal pattern matches every value.
func Match(value, pattern string, mode Mode) (bool, error) {
	switch mode {
	case Literal:
		return strings.Contains(Fold(value), Fold(pattern)), nil
	case Regex:
		re, err := Compile(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(norm.NFC.String(value)), nil
	default:
		return false, fmt.Errorf("unknown match mode %d", mode)
	}
}
