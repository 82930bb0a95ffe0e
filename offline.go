package vidctl

import (
	"context"
	"io"

	"github.com/hazyhaar/vidctl/dom/htmldoc"
	"github.com/hazyhaar/vidctl/overlay"
	"github.com/hazyhaar/vidctl/policy"
	"github.com/hazyhaar/vidctl/reconcile"
)

// ProcessHTML runs a single reconciliation pass over a saved page as if
// it were served from host, and returns the resulting HTML.
func ProcessHTML(ctx context.Context, r io.Reader, host string, src policy.Source, norm *overlay.Normalizer) (string, reconcile.Report, error) {
	doc, err := htmldoc.Parse(r, host)
	if err != nil {
		return "", reconcile.Report{}, err
	}
	rec := reconcile.New(reconcile.Config{PageID: "offline", Doc: doc, Policy: src, Normalizer: norm})
	rep := rec.Pass(ctx, reconcile.TriggerManual, 0)
	html, err := doc.HTML()
	if err != nil {
		return "", rep, err
	}
	return html, rep, nil
}
