// Package observer turns the DOM changes of a rod page into debounced
// mutation batches. It combines CDP DOM events with an injected
// MutationObserver reporting through a runtime binding.
package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/vidctl/internal/idgen"
	"github.com/hazyhaar/vidctl/mutation"
)

// ErrSubscribed is returned when Subscribe is called twice.
var ErrSubscribed = errors.New("observer: already subscribed")

// Config for creating an Observer.
type Config struct {
	Page           *rod.Page
	PageID         string
	DebounceWindow time.Duration
	DebounceMax    int
	Logger         *slog.Logger
}

// Observer is a mutation source for one page.
type Observer struct {
	page   *rod.Page
	pageID string
	cfg    debounceConfig
	logger *slog.Logger

	subscribed atomic.Bool
	seq        atomic.Uint64
	dropped    atomic.Uint64

	rawCh      chan mutation.Record
	docResetCh chan struct{}
	// expandCh carries inserted node IDs whose subtree must be requested
	// so that CDP reports mutations beneath them.
	expandCh chan proto.DOMNodeID
}

// New creates an Observer for page. Nothing is enabled until Subscribe.
func New(cfg Config) *Observer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Observer{
		page:       cfg.Page,
		pageID:     cfg.PageID,
		cfg:        debounceConfig{Window: cfg.DebounceWindow, MaxBuffer: cfg.DebounceMax},
		logger:     cfg.Logger,
		rawCh:      make(chan mutation.Record, 4096),
		docResetCh: make(chan struct{}, 1),
		expandCh:   make(chan proto.DOMNodeID, 256),
	}
}

// Dropped returns how many raw events were discarded because the buffer
// was full.
func (o *Observer) Dropped() uint64 { return o.dropped.Load() }

// Subscribe enables DOM tracking on the page and starts delivering
// batches. The channel is closed when ctx is cancelled.
func (o *Observer) Subscribe(ctx context.Context) (<-chan mutation.Batch, error) {
	if !o.subscribed.CompareAndSwap(false, true) {
		return nil, ErrSubscribed
	}
	if err := (proto.DOMEnable{}).Call(o.page); err != nil {
		return nil, fmt.Errorf("observer: DOM.enable: %w", err)
	}
	if err := o.track(); err != nil {
		return nil, err
	}
	if err := o.inject(); err != nil {
		return nil, err
	}

	out := make(chan mutation.Batch, 1)
	go o.listen(ctx)
	go o.loop(ctx, out)
	return out, nil
}

// track requests the whole tree. Chrome only reports mutations under
// nodes the client has been sent, so this must be repeated after every
// document reset.
func (o *Observer) track() error {
	depth := -1
	if _, err := (proto.DOMGetDocument{Depth: &depth, Pierce: true}).Call(o.page); err != nil {
		return fmt.Errorf("observer: DOM.getDocument: %w", err)
	}
	return nil
}

func (o *Observer) push(rec mutation.Record) {
	select {
	case o.rawCh <- rec:
	default:
		o.dropped.Add(1)
	}
}

func (o *Observer) expand(id proto.DOMNodeID) {
	select {
	case o.expandCh <- id:
	default:
	}
}

func (o *Observer) listen(ctx context.Context) {
	wait := o.page.Context(ctx).EachEvent(
		func(e *proto.DOMChildNodeInserted) {
			o.push(mutation.Record{
				Op:       mutation.OpInsert,
				NodeID:   int(e.Node.NodeID),
				ParentID: int(e.ParentNodeID),
				Tag:      e.Node.NodeName,
			})
			o.expand(e.Node.NodeID)
		},
		func(e *proto.DOMChildNodeCountUpdated) {
			o.push(mutation.Record{Op: mutation.OpChildCount, NodeID: int(e.NodeID)})
			o.expand(e.NodeID)
		},
		func(e *proto.RuntimeBindingCalled) {
			if e.Name != bindingName {
				return
			}
			recs, err := parseBinding(e.Payload)
			if err != nil {
				o.logger.Warn("observer: bad binding payload", "page_id", o.pageID, "error", err)
				return
			}
			for _, r := range recs {
				o.push(r)
			}
		},
		func(e *proto.DOMChildNodeRemoved) {
			o.push(mutation.Record{
				Op:       mutation.OpRemove,
				NodeID:   int(e.NodeID),
				ParentID: int(e.ParentNodeID),
			})
		},
		func(e *proto.DOMAttributeModified) {
			o.push(mutation.Record{Op: mutation.OpAttr, NodeID: int(e.NodeID), Name: e.Name, Value: e.Value})
		},
		func(e *proto.DOMAttributeRemoved) {
			o.push(mutation.Record{Op: mutation.OpAttrDel, NodeID: int(e.NodeID), Name: e.Name})
		},
		func(e *proto.DOMDocumentUpdated) {
			o.push(mutation.Record{Op: mutation.OpDocReset})
			select {
			case o.docResetCh <- struct{}{}:
			default:
			}
		},
	)
	wait()
}

// loop debounces raw records. A batch that the consumer has not taken yet
// absorbs later flushes, so a slow reconciler never blocks the event
// listener.
func (o *Observer) loop(ctx context.Context, out chan<- mutation.Batch) {
	defer close(out)

	var pending *mutation.Batch
	d := newDebouncer(o.cfg, func(records []mutation.Record) {
		if pending != nil {
			pending.Records = mutation.Compress(append(pending.Records, records...))
			return
		}
		pending = &mutation.Batch{
			ID:      idgen.New(),
			PageID:  o.pageID,
			Seq:     o.seq.Add(1),
			Records: records,
		}
	})

	for {
		var send chan<- mutation.Batch
		if pending != nil {
			send = out
			pending.Timestamp = time.Now().UnixMilli()
		}

		select {
		case <-ctx.Done():
			return
		case rec := <-o.rawCh:
			d.add(rec)
		case <-d.timerC():
			d.flush()
		case id := <-o.expandCh:
			depth := -1
			if err := (proto.DOMRequestChildNodes{NodeID: id, Depth: &depth, Pierce: true}).Call(o.page); err != nil {
				o.logger.Debug("observer: request child nodes", "page_id", o.pageID, "node", id, "error", err)
			}
		case <-o.docResetCh:
			if err := o.track(); err != nil {
				o.logger.Warn("observer: re-track after document reset", "page_id", o.pageID, "error", err)
			}
		case send <- o.current(pending):
			pending = nil
		}
	}
}

func (o *Observer) current(b *mutation.Batch) mutation.Batch {
	if b == nil {
		return mutation.Batch{}
	}
	return *b
}
