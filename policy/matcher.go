package policy

import "strings"

// Registrable lowercases an entry and strips one leading "www.".
// Other prefixes such as "m." are kept.
func Registrable(entry string) string {
	return strings.TrimPrefix(strings.ToLower(entry), "www.")
}

// Matches reports whether hostname equals, or is a subdomain of, the
// registrable form of any entry in list. Entries that normalise to the
// empty string never match.
func Matches(list []string, hostname string) bool {
	h := strings.ToLower(hostname)
	for _, entry := range list {
		e := Registrable(entry)
		if e == "" {
			continue
		}
		if h == e || strings.HasSuffix(h, "."+e) {
			return true
		}
	}
	return false
}
