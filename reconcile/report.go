package reconcile

import (
	"context"

	"github.com/hazyhaar/vidctl/controls"
	"github.com/hazyhaar/vidctl/overlay"
	"github.com/hazyhaar/vidctl/policy"
)

// Trigger names what caused a pass.
type Trigger string

const (
	TriggerInitial  Trigger = "initial"
	TriggerMutation Trigger = "mutation"
	TriggerManual   Trigger = "manual"
)

// Report describes one reconciliation pass.
type Report struct {
	ID       string          `json:"id"` // UUIDv7
	PageID   string          `json:"page_id"`
	Host     string          `json:"host"`
	Trigger  Trigger         `json:"trigger"`
	BatchSeq uint64          `json:"batch_seq,omitempty"`
	Mode     policy.Mode     `json:"mode"`
	Activate bool            `json:"activate"`
	Overlay  overlay.Result  `json:"overlay"`
	Controls controls.Result `json:"controls"`
	// Error holds every error of the pass, joined. Empty on success.
	Error      string `json:"error,omitempty"`
	Timestamp  int64  `json:"timestamp"` // epoch milliseconds at pass start
	DurationUS int64  `json:"duration_us"`
}

// Sink receives pass reports.
type Sink interface {
	Send(ctx context.Context, rep Report) error
	Close() error
}
