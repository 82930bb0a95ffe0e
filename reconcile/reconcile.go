// Package reconcile keeps a page in line with the domain policy: one pass
// at start, then one pass per batch of child-list mutations.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/vidctl/controls"
	"github.com/hazyhaar/vidctl/dom"
	"github.com/hazyhaar/vidctl/internal/idgen"
	"github.com/hazyhaar/vidctl/mutation"
	"github.com/hazyhaar/vidctl/overlay"
	"github.com/hazyhaar/vidctl/policy"
)

// ErrAlreadyObserving is returned by a second call to Start.
var ErrAlreadyObserving = errors.New("reconcile: already observing")

// State is the reconciler lifecycle. It only moves forward.
type State int32

const (
	StateInactive State = iota
	StateObserving
)

func (s State) String() string {
	if s == StateObserving {
		return "observing"
	}
	return "inactive"
}

// Source delivers mutation batches for one page until ctx is cancelled
// or the page goes away, at which point the channel is closed.
type Source interface {
	Subscribe(ctx context.Context) (<-chan mutation.Batch, error)
}

// Config for creating a Reconciler.
type Config struct {
	PageID     string
	Doc        dom.Document
	Policy     policy.Source
	Normalizer *overlay.Normalizer
	// Sink receives one Report per pass. Optional.
	Sink   Sink
	Logger *slog.Logger
}

// Reconciler owns the observation of one page.
type Reconciler struct {
	pageID     string
	doc        dom.Document
	policy     policy.Source
	normalizer *overlay.Normalizer
	sink       Sink
	logger     *slog.Logger

	state   atomic.Int32
	trigger chan struct{}
	done    chan struct{}
	passes  atomic.Uint64

	// mu serialises passes.
	mu sync.Mutex
}

// New creates an inactive Reconciler.
func New(cfg Config) *Reconciler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PageID == "" {
		cfg.PageID = idgen.New()
	}
	return &Reconciler{
		pageID:     cfg.PageID,
		doc:        cfg.Doc,
		policy:     cfg.Policy,
		normalizer: cfg.Normalizer,
		sink:       cfg.Sink,
		logger:     cfg.Logger.With("page_id", cfg.PageID),
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// PageID returns the identifier stamped on reports.
func (r *Reconciler) PageID() string { return r.pageID }

// State returns the current lifecycle state.
func (r *Reconciler) State() State { return State(r.state.Load()) }

// Passes returns how many passes have completed.
func (r *Reconciler) Passes() uint64 { return r.passes.Load() }

// Done is closed when the observation loop exits.
func (r *Reconciler) Done() <-chan struct{} { return r.done }

// Start subscribes to src, runs the initial pass and then processes
// batches in the background until ctx is cancelled or src closes its
// channel. The subscription exists before the initial pass, so no
// insertion can fall between the two. It can succeed only once.
func (r *Reconciler) Start(ctx context.Context, src Source) error {
	if !r.state.CompareAndSwap(int32(StateInactive), int32(StateObserving)) {
		return ErrAlreadyObserving
	}

	batches, err := src.Subscribe(ctx)
	if err != nil {
		close(r.done)
		return fmt.Errorf("reconcile: subscribe: %w", err)
	}

	r.Pass(ctx, TriggerInitial, 0)

	go r.loop(ctx, batches)
	return nil
}

// Trigger requests an extra pass on the observation loop. Requests made
// while one is already pending are coalesced.
func (r *Reconciler) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Reconciler) loop(ctx context.Context, batches <-chan mutation.Batch) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-batches:
			if !ok {
				r.logger.Info("reconcile: mutation source closed")
				return
			}
			if !b.HasChildList() {
				continue
			}
			r.Pass(ctx, TriggerMutation, b.Seq)
		case <-r.trigger:
			r.Pass(ctx, TriggerManual, 0)
		}
	}
}

// Pass runs one reconciliation: read the policy once, decide, normalise
// overlays when activated, then apply controls with the same decision.
// Failures are recorded in the report and logged, never propagated.
func (r *Reconciler) Pass(ctx context.Context, trigger Trigger, seq uint64) (rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	rep = Report{
		ID:        idgen.New(),
		PageID:    r.pageID,
		Trigger:   trigger,
		BatchSeq:  seq,
		Timestamp: start.UnixMilli(),
	}
	var errs []error

	defer func() {
		if p := recover(); p != nil {
			errs = append(errs, fmt.Errorf("reconcile: pass panicked: %v", p))
		}
		if err := errors.Join(errs...); err != nil {
			rep.Error = err.Error()
			r.logger.Warn("reconcile: pass failed", "trigger", trigger, "host", rep.Host, "error", err)
		}
		rep.DurationUS = time.Since(start).Microseconds()
		r.passes.Add(1)
		r.emit(ctx, rep)
	}()

	host, err := r.doc.Hostname(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile: hostname: %w", err))
		return rep
	}
	rep.Host = host

	activate, snap, err := policy.Decide(ctx, r.policy, host)
	if err != nil {
		errs = append(errs, err)
	}
	rep.Mode = snap.Mode
	rep.Activate = activate

	if activate && r.normalizer != nil {
		res, err := r.normalizer.Normalize(ctx, r.doc, host)
		rep.Overlay = res
		if err != nil {
			errs = append(errs, err)
		}
	}

	res, err := controls.Apply(ctx, r.doc, activate)
	rep.Controls = res
	if err != nil {
		errs = append(errs, err)
	}

	r.logger.Debug("reconcile: pass",
		"trigger", trigger,
		"host", host,
		"activate", activate,
		"overlays", rep.Overlay.Total(),
		"videos", res.Videos,
		"enabled", res.Enabled,
	)
	return rep
}

func (r *Reconciler) emit(ctx context.Context, rep Report) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Send(ctx, rep); err != nil {
		r.logger.Warn("reconcile: sink send failed", "error", err)
	}
}
