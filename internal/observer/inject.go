package observer

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/vidctl/mutation"
)

// bindingName is the page global the injected script reports through.
const bindingName = "__vidctl_binding"

//go:embed observer.js
var observerJS string

// inject installs the binding and a subtree MutationObserver in the
// current document and in every document the tab loads afterwards.
// CDP only reports insertions under nodes it has already sent, so the
// script is what catches content rendered inside freshly inserted nodes.
func (o *Observer) inject() error {
	if err := (proto.RuntimeEnable{}).Call(o.page); err != nil {
		return fmt.Errorf("observer: Runtime.enable: %w", err)
	}
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(o.page); err != nil {
		return fmt.Errorf("observer: Runtime.addBinding: %w", err)
	}
	if _, err := (proto.PageAddScriptToEvaluateOnNewDocument{Source: observerJS}).Call(o.page); err != nil {
		return fmt.Errorf("observer: add script: %w", err)
	}
	if _, err := (proto.RuntimeEvaluate{Expression: observerJS}).Call(o.page); err != nil {
		return fmt.Errorf("observer: inject script: %w", err)
	}
	return nil
}

// parseBinding decodes one binding payload. Unknown ops are skipped.
func parseBinding(payload string) ([]mutation.Record, error) {
	var raw []struct {
		Op  string `json:"op"`
		Tag string `json:"tag"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("observer: binding payload: %w", err)
	}
	out := make([]mutation.Record, 0, len(raw))
	for _, r := range raw {
		switch mutation.Op(r.Op) {
		case mutation.OpInsert, mutation.OpRemove:
			out = append(out, mutation.Record{Op: mutation.Op(r.Op), Tag: r.Tag})
		}
	}
	return out, nil
}
