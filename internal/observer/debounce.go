package observer

import (
	"time"

	"github.com/hazyhaar/vidctl/mutation"
)

// debounceConfig controls the batching behaviour.
type debounceConfig struct {
	// Window is the quiet period before a flush. Default: 100ms.
	Window time.Duration
	// MaxBuffer flushes immediately when this many records accumulate. Default: 1000.
	MaxBuffer int
}

func (dc *debounceConfig) defaults() {
	if dc.Window <= 0 {
		dc.Window = 100 * time.Millisecond
	}
	if dc.MaxBuffer <= 0 {
		dc.MaxBuffer = 1000
	}
}

// debouncer collects raw records and hands them to flushFn, compressed,
// once the window expires or the buffer fills. It is owned by a single
// goroutine.
type debouncer struct {
	cfg     debounceConfig
	records []mutation.Record
	timer   *time.Timer
	timerCh <-chan time.Time
	flushFn func([]mutation.Record)
}

func newDebouncer(cfg debounceConfig, flushFn func([]mutation.Record)) *debouncer {
	cfg.defaults()
	return &debouncer{
		cfg:     cfg,
		records: make([]mutation.Record, 0, 64),
		flushFn: flushFn,
	}
}

// add pushes a record into the buffer. Returns true if the buffer was
// full and an immediate flush happened.
func (d *debouncer) add(rec mutation.Record) bool {
	d.records = append(d.records, rec)

	if len(d.records) >= d.cfg.MaxBuffer {
		d.flush()
		return true
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.NewTimer(d.cfg.Window)
	d.timerCh = d.timer.C
	return false
}

// timerC fires when the window expires. Nil while the buffer is empty.
func (d *debouncer) timerC() <-chan time.Time {
	return d.timerCh
}

func (d *debouncer) flush() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
		d.timerCh = nil
	}
	if len(d.records) == 0 {
		return
	}
	out := mutation.Compress(append([]mutation.Record(nil), d.records...))
	d.records = d.records[:0]
	d.flushFn(out)
}
