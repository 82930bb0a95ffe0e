// Package rodpage implements dom.Document over a live Chrome tab driven
// by go-rod. Every call is a DevTools round trip bound to the caller's
// context.
package rodpage

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/vidctl/dom"
)

// Document wraps a rod page.
type Document struct {
	page *rod.Page
}

// New wraps page.
func New(page *rod.Page) *Document {
	return &Document{page: page}
}

func (d *Document) Hostname(ctx context.Context) (string, error) {
	res, err := d.page.Context(ctx).Eval(`() => window.location.hostname`)
	if err != nil {
		return "", fmt.Errorf("rodpage: hostname: %w", err)
	}
	return res.Value.Str(), nil
}

func (d *Document) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("rodpage: query %q: %w", selector, err)
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el}
	}
	return out, nil
}

// Element wraps a rod element.
type Element struct {
	el *rod.Element
}

func (e *Element) Attr(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("rodpage: attr %s: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *Element) SetAttr(ctx context.Context, name, value string) error {
	_, err := e.el.Context(ctx).Eval(`function(n, v) { this.setAttribute(n, v) }`, name, value)
	if err != nil {
		return fmt.Errorf("rodpage: set attr %s: %w", name, err)
	}
	return nil
}

func (e *Element) Remove(ctx context.Context) error {
	if err := e.el.Context(ctx).Remove(); err != nil {
		return fmt.Errorf("rodpage: remove: %w", err)
	}
	return nil
}

func (e *Element) Style(ctx context.Context, property string) (string, error) {
	res, err := e.el.Context(ctx).Eval(`function(p) { return this.style.getPropertyValue(p) }`, property)
	if err != nil {
		return "", fmt.Errorf("rodpage: style %s: %w", property, err)
	}
	return res.Value.Str(), nil
}

func (e *Element) SetStyle(ctx context.Context, property, value string) error {
	_, err := e.el.Context(ctx).Eval(`function(p, v) { this.style.setProperty(p, v) }`, property, value)
	if err != nil {
		return fmt.Errorf("rodpage: set style %s: %w", property, err)
	}
	return nil
}
