// Package dom is the narrow view of a host page that the normaliser and
// the control enabler work against. Two implementations exist:
// dom/rodpage drives a live Chrome tab, dom/htmldoc edits a parsed HTML
// document in memory.
package dom

import "context"

// Document is a queryable, mutable page.
type Document interface {
	// Hostname is the page's location.hostname.
	Hostname(ctx context.Context) (string, error)
	// QueryAll returns the elements matching a CSS selector, in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Element is one element of a Document.
type Element interface {
	// Attr returns the attribute value and whether it is present.
	Attr(ctx context.Context, name string) (string, bool, error)
	SetAttr(ctx context.Context, name, value string) error
	// Remove detaches the element from the document.
	Remove(ctx context.Context) error
	// Style returns the inline value of a CSS property ("" when unset).
	Style(ctx context.Context, property string) (string, error)
	SetStyle(ctx context.Context, property, value string) error
}
