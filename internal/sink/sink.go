// Package sink delivers reconciliation reports to stdout, a webhook or
// an in-process callback.
package sink

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/vidctl/internal/config"
	"github.com/hazyhaar/vidctl/reconcile"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// FromConfig builds the sinks described by cfgs behind a Router.
// Webhooks are queued through Async. No configured sink yields nil.
func FromConfig(cfgs []config.SinkConfig, logger *slog.Logger) (reconcile.Sink, error) {
	if len(cfgs) == 0 {
		return nil, nil
	}
	sinks := make([]reconcile.Sink, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Type {
		case "stdout", "":
			sinks = append(sinks, NewStdout(nil))
		case "webhook":
			sinks = append(sinks, NewAsync(NewWebhook(c.URL, WithWebhookLogger(logger)), 0, logger))
		default:
			return nil, fmt.Errorf("sink: unknown type %q", c.Type)
		}
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewRouter(logger, sinks...), nil
}
