// Package policy decides whether vidctl acts on a hostname.
//
// A policy is a Mode plus two domain lists. In Exclude mode (the default)
// every site is handled except the excluded ones; in Include mode only the
// included sites are handled. The decision is a pure function of a
// Snapshot and a hostname, so it can be evaluated without a browser or a
// database.
package policy

import (
	"context"
	"errors"
)

// Mode selects which domain list drives the decision.
type Mode string

const (
	// ModeExclude activates everywhere except ExcludedDomains.
	ModeExclude Mode = "exclude"
	// ModeInclude activates only on IncludedDomains.
	ModeInclude Mode = "include"
)

// ParseMode maps a raw persisted value to a Mode. Anything other than
// "include" (including the empty string) is Exclude.
func ParseMode(raw string) Mode {
	if Mode(raw) == ModeInclude {
		return ModeInclude
	}
	return ModeExclude
}

// ListKey is the persisted key of a domain list.
type ListKey string

const (
	ExcludedDomains ListKey = "excludedDomains"
	IncludedDomains ListKey = "includedDomains"
)

// KeyMode is the persisted key of the mode scalar.
const KeyMode = "mode"

// ActiveList returns the list a mode reads from.
func (m Mode) ActiveList() ListKey {
	if m == ModeInclude {
		return IncludedDomains
	}
	return ExcludedDomains
}

// ParseListKey accepts the persisted key or the short names used by the
// CLI and HTTP API ("excluded", "included", "exclude", "include").
func ParseListKey(s string) (ListKey, bool) {
	switch s {
	case string(ExcludedDomains), "excluded", "exclude":
		return ExcludedDomains, true
	case string(IncludedDomains), "included", "include":
		return IncludedDomains, true
	}
	return "", false
}

// Snapshot is one consistent read of the persisted policy.
type Snapshot struct {
	Mode     Mode     `json:"mode"`
	Excluded []string `json:"excluded_domains"`
	Included []string `json:"included_domains"`
}

// List returns the entries stored under key.
func (s Snapshot) List(key ListKey) []string {
	if key == IncludedDomains {
		return s.Included
	}
	return s.Excluded
}

// Source reads policy snapshots from persistent storage.
type Source interface {
	ReadSnapshot(ctx context.Context) (Snapshot, error)
}

var (
	// ErrStorageUnavailable wraps any failure of the underlying store.
	ErrStorageUnavailable = errors.New("policy: storage unavailable")
	// ErrInvalidDomain is returned for entries failing ValidateDomain.
	ErrInvalidDomain = errors.New("policy: invalid domain")
	// ErrDuplicateDomain is returned when a list already holds the entry.
	ErrDuplicateDomain = errors.New("policy: domain already listed")
	// ErrDomainNotListed is returned when removing an absent entry.
	ErrDomainNotListed = errors.New("policy: domain not listed")
	// ErrUnknownList is returned for list names other than the two lists.
	ErrUnknownList = errors.New("policy: unknown domain list")
)
