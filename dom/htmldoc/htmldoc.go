// Package htmldoc implements dom.Document over a parsed HTML document.
// It backs offline processing of saved pages and the pipeline tests.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/vidctl/dom"
)

// Document is an in-memory page with a fixed hostname.
type Document struct {
	doc  *goquery.Document
	host string
}

// Parse reads HTML from r. hostname plays the role of location.hostname.
func Parse(r io.Reader, hostname string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	return &Document{doc: doc, host: hostname}, nil
}

// ParseString is Parse over a string.
func ParseString(html, hostname string) (*Document, error) {
	return Parse(strings.NewReader(html), hostname)
}

// HTML renders the current document.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Find exposes goquery for assertions and callers that need more than
// the dom.Document surface.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

func (d *Document) Hostname(context.Context) (string, error) {
	return d.host, nil
}

func (d *Document) QueryAll(_ context.Context, selector string) ([]dom.Element, error) {
	var out []dom.Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out, nil
}

// Element is a single-node selection.
type Element struct {
	sel *goquery.Selection
}

func (e *Element) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *Element) SetAttr(_ context.Context, name, value string) error {
	e.sel.SetAttr(name, value)
	return nil
}

func (e *Element) Remove(context.Context) error {
	e.sel.Remove()
	return nil
}

func (e *Element) Style(_ context.Context, property string) (string, error) {
	attr, _ := e.sel.Attr("style")
	return dom.StyleValue(attr, property)
}

func (e *Element) SetStyle(_ context.Context, property, value string) error {
	attr, _ := e.sel.Attr("style")
	next, err := dom.SetStyleValue(attr, property, value)
	if err != nil {
		return fmt.Errorf("htmldoc: style: %w", err)
	}
	e.sel.SetAttr("style", next)
	return nil
}
