// Package settings is the policy editor: it switches the mode and
// maintains the two domain lists. Every write validates its input and
// keeps the lists free of case-insensitive duplicates. The editor is
// exposed to users through the CLI, an HTTP API (Routes) and MCP tools
// (RegisterMCP).
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/vidctl/internal/store"
	"github.com/hazyhaar/vidctl/policy"
)

// Editor edits the persisted policy.
type Editor struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an Editor over st.
func New(st *store.Store, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{store: st, logger: logger}
}

// Init stores the default mode when none is stored yet.
func (e *Editor) Init(ctx context.Context) error {
	created, err := e.store.SetIfAbsent(ctx, policy.KeyMode, string(policy.ModeExclude))
	if err != nil {
		return err
	}
	if created {
		e.logger.Info("settings: default mode stored", "mode", policy.ModeExclude)
	}
	return nil
}

// Snapshot returns the current policy.
func (e *Editor) Snapshot(ctx context.Context) (policy.Snapshot, error) {
	return e.store.ReadSnapshot(ctx)
}

// Mode returns the current mode.
func (e *Editor) Mode(ctx context.Context) (policy.Mode, error) {
	vals, err := e.store.Get(ctx, policy.KeyMode)
	if err != nil {
		return "", err
	}
	return store.DecodeMode(vals[policy.KeyMode]), nil
}

// SetMode stores mode. Anything other than include is stored as exclude.
func (e *Editor) SetMode(ctx context.Context, mode policy.Mode) (policy.Mode, error) {
	m := policy.ParseMode(string(mode))
	if err := e.store.Set(ctx, map[string]any{policy.KeyMode: string(m)}); err != nil {
		return "", err
	}
	e.logger.Info("settings: mode changed", "mode", m)
	return m, nil
}

// resolve maps a list name to a key; the empty name selects the list of
// the current mode.
func (e *Editor) resolve(ctx context.Context, list string) (policy.ListKey, error) {
	key, err := listKey(list)
	if err != nil || key != "" {
		return key, err
	}
	m, err := e.Mode(ctx)
	if err != nil {
		return "", err
	}
	return m.ActiveList(), nil
}

// List returns the entries of list in display order.
func (e *Editor) List(ctx context.Context, list string) (policy.ListKey, []string, error) {
	key, err := e.resolve(ctx, list)
	if err != nil {
		return "", nil, err
	}
	snap, err := e.store.ReadSnapshot(ctx)
	if err != nil {
		return "", nil, err
	}
	return key, policy.SortForDisplay(snap.List(key)), nil
}

// listKey parses a list name. The empty name yields the empty key, which
// the store resolves to the list of the current mode.
func listKey(list string) (policy.ListKey, error) {
	if list == "" {
		return "", nil
	}
	key, ok := policy.ParseListKey(list)
	if !ok {
		return "", fmt.Errorf("%w: %q", policy.ErrUnknownList, list)
	}
	return key, nil
}

// AddDomain validates raw and appends it to list.
func (e *Editor) AddDomain(ctx context.Context, list, raw string) (policy.ListKey, string, error) {
	domain, err := policy.ValidateDomain(raw)
	if err != nil {
		return "", "", err
	}
	key, err := listKey(list)
	if err != nil {
		return "", "", err
	}

	key, err = e.store.UpdateList(ctx, key, func(cur json.RawMessage) (any, error) {
		domains, err := store.DecodeList(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", policy.ErrStorageUnavailable, err)
		}
		if policy.Contains(domains, domain) {
			return nil, fmt.Errorf("%w: %s", policy.ErrDuplicateDomain, domain)
		}
		return append(domains, domain), nil
	})
	if err != nil {
		return key, domain, err
	}
	e.logger.Info("settings: domain added", "list", key, "domain", domain)
	return key, domain, nil
}

// RemoveDomain removes domain from list, ignoring case. The input is
// normalised like AddDomain does, so an internationalised name matches
// its stored ASCII form.
func (e *Editor) RemoveDomain(ctx context.Context, list, domain string) (policy.ListKey, error) {
	key, err := listKey(list)
	if err != nil {
		return "", err
	}
	target, err := policy.NormalizeDomain(domain)
	if err != nil {
		target = strings.TrimSpace(domain)
	}

	key, err = e.store.UpdateList(ctx, key, func(cur json.RawMessage) (any, error) {
		domains, err := store.DecodeList(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", policy.ErrStorageUnavailable, err)
		}
		kept := domains[:0]
		for _, d := range domains {
			if !strings.EqualFold(d, target) {
				kept = append(kept, d)
			}
		}
		if len(kept) == len(domains) {
			return nil, fmt.Errorf("%w: %s", policy.ErrDomainNotListed, target)
		}
		return kept, nil
	})
	if err != nil {
		return key, err
	}
	e.logger.Info("settings: domain removed", "list", key, "domain", target)
	return key, nil
}

// Decision is the evaluated policy for one hostname.
type Decision struct {
	Host     string      `json:"host"`
	Mode     policy.Mode `json:"mode"`
	Activate bool        `json:"activate"`
}

// Check evaluates the policy for host.
func (e *Editor) Check(ctx context.Context, host string) (Decision, error) {
	h := strings.ToLower(strings.TrimSpace(host))
	ok, snap, err := policy.Decide(ctx, e.store, h)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Host: h, Mode: snap.Mode, Activate: ok}, nil
}
