package observer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/vidctl/internal/browser"
	"github.com/hazyhaar/vidctl/mutation"
)

func TestDebouncer_FlushOnWindow(t *testing.T) {
	var got [][]mutation.Record
	d := newDebouncer(debounceConfig{Window: 10 * time.Millisecond}, func(r []mutation.Record) {
		got = append(got, r)
	})

	d.add(mutation.Record{Op: mutation.OpInsert, NodeID: 1})
	d.add(mutation.Record{Op: mutation.OpAttr, NodeID: 1, Name: "style", Value: "a"})
	d.add(mutation.Record{Op: mutation.OpAttr, NodeID: 1, Name: "style", Value: "b"})

	select {
	case <-d.timerC():
		d.flush()
	case <-time.After(time.Second):
		t.Fatal("window never expired")
	}

	if len(got) != 1 {
		t.Fatalf("flushes: got %d, want 1", len(got))
	}
	if len(got[0]) != 2 {
		t.Errorf("records: got %d, want 2 (attr compressed)", len(got[0]))
	}
	if d.timerC() != nil {
		t.Error("timer still armed after flush")
	}
}

func TestDebouncer_FlushOnMaxBuffer(t *testing.T) {
	flushes := 0
	d := newDebouncer(debounceConfig{Window: time.Hour, MaxBuffer: 3}, func([]mutation.Record) {
		flushes++
	})
	for i := range 3 {
		full := d.add(mutation.Record{Op: mutation.OpInsert, NodeID: i})
		if want := i == 2; full != want {
			t.Errorf("add %d: got full=%v, want %v", i, full, want)
		}
	}
	if flushes != 1 {
		t.Errorf("flushes: got %d, want 1", flushes)
	}
}

func TestDebouncer_EmptyFlush(t *testing.T) {
	called := false
	d := newDebouncer(debounceConfig{}, func([]mutation.Record) { called = true })
	d.flush()
	if called {
		t.Error("flush of empty buffer emitted a batch")
	}
}

func TestLoop_BatchesAndCoalesces(t *testing.T) {
	o := New(Config{PageID: "p1", DebounceWindow: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan mutation.Batch)
	go o.loop(ctx, out)

	o.push(mutation.Record{Op: mutation.OpInsert, NodeID: 1})
	time.Sleep(30 * time.Millisecond)
	o.push(mutation.Record{Op: mutation.OpRemove, NodeID: 1})
	time.Sleep(30 * time.Millisecond)

	// Nobody was receiving: both windows end up in a single batch.
	var b mutation.Batch
	select {
	case b = <-out:
	case <-time.After(time.Second):
		t.Fatal("no batch delivered")
	}
	if b.PageID != "p1" {
		t.Errorf("PageID: got %q, want %q", b.PageID, "p1")
	}
	if b.Seq != 1 {
		t.Errorf("Seq: got %d, want 1", b.Seq)
	}
	if len(b.Records) != 2 {
		t.Errorf("Records: got %d, want 2", len(b.Records))
	}
	if b.ID == "" || b.Timestamp == 0 {
		t.Errorf("ID/Timestamp not set: %+v", b)
	}

	o.push(mutation.Record{Op: mutation.OpInsert, NodeID: 2})
	select {
	case b = <-out:
	case <-time.After(time.Second):
		t.Fatal("no second batch")
	}
	if b.Seq != 2 {
		t.Errorf("Seq: got %d, want 2", b.Seq)
	}

	cancel()
	select {
	case _, ok := <-out:
		if ok {
			t.Error("unexpected batch after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("out not closed after cancel")
	}
}

func TestPush_DropsWhenFull(t *testing.T) {
	o := New(Config{})
	o.rawCh = make(chan mutation.Record, 1)
	o.push(mutation.Record{Op: mutation.OpInsert})
	o.push(mutation.Record{Op: mutation.OpInsert})
	if o.Dropped() != 1 {
		t.Errorf("Dropped: got %d, want 1", o.Dropped())
	}
}

func TestParseBinding(t *testing.T) {
	recs, err := parseBinding(`[{"op":"insert","tag":"DIV"},{"op":"remove","tag":"VIDEO"},{"op":"bogus"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	if recs[0].Op != mutation.OpInsert || recs[0].Tag != "DIV" {
		t.Errorf("record 0: got %+v", recs[0])
	}
	if recs[1].Op != mutation.OpRemove || recs[1].Tag != "VIDEO" {
		t.Errorf("record 1: got %+v", recs[1])
	}

	if _, err := parseBinding("not json"); err == nil {
		t.Error("expected error for malformed payload")
	}
}

// openTab serves body over HTTP and opens it in a local headless Chrome.
// The test is skipped when no browser is installed.
func openTab(t *testing.T, body string) *browser.Tab {
	t.Helper()
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no Chrome or Chromium on this machine")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	m := browser.NewManager(browser.Config{Bin: bin, NavigateTimeout: 10 * time.Second})
	if _, err := m.Start(context.Background()); err != nil {
		t.Skipf("browser unavailable: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	tab, err := m.OpenTab(context.Background(), srv.URL, "test")
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestSubscribe_NestedInsertion(t *testing.T) {
	tab := openTab(t, `<html><body><p>feed</p></body></html>`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := New(Config{Page: tab.Page, PageID: "p1", DebounceWindow: 20 * time.Millisecond})
	batches, err := o.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// A container first, then a video rendered inside it once the
	// container is already attached.
	_, err = tab.Page.Eval(`() => {
		const post = document.createElement("div");
		document.body.appendChild(post);
		setTimeout(() => post.appendChild(document.createElement("video")), 300);
	}`)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case b := <-batches:
			if !b.HasChildList() {
				continue
			}
			for _, r := range b.Records {
				if r.Op == mutation.OpInsert && r.Tag == "VIDEO" {
					return
				}
			}
		case <-deadline:
			t.Fatal("insertion of a video inside a new container was never reported")
		}
	}
}

func TestSubscribe_Twice(t *testing.T) {
	tab := openTab(t, `<html><body></body></html>`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := New(Config{Page: tab.Page})
	if _, err := o.Subscribe(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Subscribe(ctx); err != ErrSubscribed {
		t.Errorf("second Subscribe: got %v, want ErrSubscribed", err)
	}
}
