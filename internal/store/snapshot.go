package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hazyhaar/vidctl/policy"
)

// ReadSnapshot reads mode and both domain lists in a single query.
// Absent or unrecognised mode reads as Exclude, absent lists as empty,
// and entries are lowercased. A list whose stored value is not an array
// of strings is reported as ErrStorageUnavailable so callers fail safe.
func (s *Store) ReadSnapshot(ctx context.Context) (policy.Snapshot, error) {
	vals, err := s.Get(ctx,
		policy.KeyMode,
		string(policy.ExcludedDomains),
		string(policy.IncludedDomains),
	)
	if err != nil {
		return policy.Snapshot{}, err
	}

	snap := policy.Snapshot{Mode: decodeMode(vals[policy.KeyMode])}
	if snap.Excluded, err = decodeList(vals[string(policy.ExcludedDomains)]); err != nil {
		return policy.Snapshot{}, fmt.Errorf("store: %s: %w: %w", policy.ExcludedDomains, policy.ErrStorageUnavailable, err)
	}
	if snap.Included, err = decodeList(vals[string(policy.IncludedDomains)]); err != nil {
		return policy.Snapshot{}, fmt.Errorf("store: %s: %w: %w", policy.IncludedDomains, policy.ErrStorageUnavailable, err)
	}
	return snap, nil
}

func decodeMode(raw json.RawMessage) policy.Mode {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return policy.ModeExclude
	}
	return policy.ParseMode(s)
}

func decodeList(raw json.RawMessage) ([]string, error) {
	if raw == nil {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, d := range list {
		out = append(out, strings.ToLower(d))
	}
	return out, nil
}

// DecodeList is decodeList for the settings editor, which reads lists
// through Update.
func DecodeList(raw json.RawMessage) ([]string, error) {
	return decodeList(raw)
}

// DecodeMode is decodeMode for the settings editor.
func DecodeMode(raw json.RawMessage) policy.Mode {
	return decodeMode(raw)
}
