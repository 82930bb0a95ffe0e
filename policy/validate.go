package policy

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// domainRe accepts one or more labels followed by an alphabetic TLD of at
// least two letters (or its punycode form). ':' and '/' are outside every
// class, so scheme prefixes and paths are rejected.
var domainRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+\.)+([a-zA-Z]{2,}|xn--[a-zA-Z0-9-]+)$`)

// NormalizeDomain trims and lowercases user input and converts
// internationalised names to their ASCII form.
func NormalizeDomain(raw string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDomain)
	}
	if !isASCII(d) {
		a, err := idna.Lookup.ToASCII(d)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidDomain, raw, err)
		}
		d = a
	}
	return d, nil
}

// ValidateDomain normalises raw and checks its syntax.
func ValidateDomain(raw string) (string, error) {
	d, err := NormalizeDomain(raw)
	if err != nil {
		return "", err
	}
	if !domainRe.MatchString(d) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}
	return d, nil
}

// Contains reports whether list holds domain, ignoring case.
func Contains(list []string, domain string) bool {
	return slices.ContainsFunc(list, func(e string) bool {
		return strings.EqualFold(e, domain)
	})
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
