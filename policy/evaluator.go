package policy

import (
	"context"
	"strings"
)

// ShouldActivate is the single activation decision for hostname.
func ShouldActivate(snap Snapshot, hostname string) bool {
	host := strings.ToLower(hostname)
	if snap.Mode == ModeInclude {
		return Matches(snap.Included, host)
	}
	return !Matches(snap.Excluded, host)
}

// Decide reads one snapshot from src and evaluates it. A failed read
// yields false together with the error so callers can log it; the
// decision is never true when storage is unavailable.
func Decide(ctx context.Context, src Source, hostname string) (bool, Snapshot, error) {
	snap, err := src.ReadSnapshot(ctx)
	if err != nil {
		return false, Snapshot{}, err
	}
	return ShouldActivate(snap, hostname), snap, nil
}
