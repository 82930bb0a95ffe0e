// Package overlay strips or defuses the site-specific layers that sit on
// top of video players and swallow clicks meant for native controls.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/vidctl/dom"
)

// Action is what a rule does to each element its selector matches.
type Action string

const (
	// ActionRemove detaches matched elements.
	ActionRemove Action = "remove"
	// ActionNeutralize disables pointer events and tags the element.
	ActionNeutralize Action = "neutralize"
	// ActionMarginFix forces margin-bottom to a fixed value and tags the element.
	ActionMarginFix Action = "margin_fix"
)

// Rule binds a selector to a hostname fragment.
type Rule struct {
	Name string `yaml:"name" json:"name"`
	// Host is matched as a substring of the page hostname.
	Host     string `yaml:"host" json:"host"`
	Selector string `yaml:"selector" json:"selector"`
	Action   Action `yaml:"action" json:"action"`
}

const (
	igBlockAttr     = "data-igblock"
	igMarginFixAttr = "data-igmarginfix"
	igMarginBottom  = "40px"
)

// Builtin returns the rules shipped with vidctl.
func Builtin() []Rule {
	return []Rule{
		{
			Name:     "9gag-overlays",
			Host:     "9gag.com",
			Selector: ".sound-toggle, .length, .presenting",
			Action:   ActionRemove,
		},
		{
			Name:     "instagram-click-shield",
			Host:     "instagram.com",
			Selector: `div[data-visualcompletion="ignore"]:not([class=""]):not([` + igBlockAttr + `="true"])`,
			Action:   ActionNeutralize,
		},
		{
			Name:     "instagram-control-margin",
			Host:     "instagram.com",
			Selector: "button._aswp._aswq._aswu._asw_._asx2",
			Action:   ActionMarginFix,
		},
	}
}

// Validate checks that a configured rule can be applied.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("overlay: rule %q: empty host", r.Name)
	}
	if strings.TrimSpace(r.Selector) == "" {
		return fmt.Errorf("overlay: rule %q: empty selector", r.Name)
	}
	switch r.Action {
	case ActionRemove, ActionNeutralize, ActionMarginFix:
		return nil
	default:
		return fmt.Errorf("overlay: rule %q: unknown action %q", r.Name, r.Action)
	}
}

// Result counts the elements touched by one Normalize call.
type Result struct {
	Removed     int `json:"removed"`
	Neutralized int `json:"neutralized"`
	Adjusted    int `json:"adjusted"`
}

// Total is the number of elements changed.
func (r Result) Total() int { return r.Removed + r.Neutralized + r.Adjusted }

// Normalizer applies the rules whose host fragment occurs in the page
// hostname.
type Normalizer struct {
	rules  []Rule
	logger *slog.Logger
}

// New returns a Normalizer with the built-in rules followed by extra.
// Extra rules with an empty action default to removal.
func New(logger *slog.Logger, extra ...Rule) (*Normalizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rules := Builtin()
	for _, r := range extra {
		if r.Action == "" {
			r.Action = ActionRemove
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return &Normalizer{rules: rules, logger: logger}, nil
}

// Rules returns the rules applicable to host.
func (n *Normalizer) Rules(host string) []Rule {
	host = strings.ToLower(host)
	var out []Rule
	for _, r := range n.rules {
		if strings.Contains(host, strings.ToLower(r.Host)) {
			out = append(out, r)
		}
	}
	return out
}

// Normalize runs every applicable rule against doc. A failing rule does
// not stop the others; their errors are joined.
func (n *Normalizer) Normalize(ctx context.Context, doc dom.Document, host string) (Result, error) {
	var (
		res  Result
		errs []error
	)
	for _, r := range n.Rules(host) {
		count, err := apply(ctx, doc, r)
		switch r.Action {
		case ActionRemove:
			res.Removed += count
		case ActionNeutralize:
			res.Neutralized += count
		case ActionMarginFix:
			res.Adjusted += count
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("overlay: rule %s: %w", r.Name, err))
			continue
		}
		if count > 0 {
			n.logger.Debug("overlay: rule applied", "rule", r.Name, "host", host, "count", count)
		}
	}
	return res, errors.Join(errs...)
}

func apply(ctx context.Context, doc dom.Document, r Rule) (int, error) {
	els, err := doc.QueryAll(ctx, r.Selector)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, el := range els {
		var changed bool
		switch r.Action {
		case ActionRemove:
			err = el.Remove(ctx)
			changed = err == nil
		case ActionNeutralize:
			changed, err = neutralize(ctx, el)
		case ActionMarginFix:
			changed, err = fixMargin(ctx, el)
		}
		if err != nil {
			return count, err
		}
		if changed {
			count++
		}
	}
	return count, nil
}

func neutralize(ctx context.Context, el dom.Element) (bool, error) {
	if v, ok, err := el.Attr(ctx, igBlockAttr); err != nil {
		return false, err
	} else if ok && v == "true" {
		return false, nil
	}
	if err := el.SetStyle(ctx, "pointer-events", "none"); err != nil {
		return false, err
	}
	return true, el.SetAttr(ctx, igBlockAttr, "true")
}

func fixMargin(ctx context.Context, el dom.Element) (bool, error) {
	v, err := el.Style(ctx, "margin-bottom")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(v) == igMarginBottom {
		return false, nil
	}
	if err := el.SetStyle(ctx, "margin-bottom", igMarginBottom); err != nil {
		return false, err
	}
	return true, el.SetAttr(ctx, igMarginFixAttr, "true")
}
