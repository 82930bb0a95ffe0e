// Package controls turns on native playback controls for videos that
// the page rendered without them.
package controls

import (
	"context"
	"fmt"

	"github.com/hazyhaar/vidctl/dom"
)

// Result counts what one Apply call saw and changed.
type Result struct {
	Videos   int `json:"videos"`
	Eligible int `json:"eligible"`
	Enabled  int `json:"enabled"`
}

// Eligible reports whether a video element should be given controls:
// controls absent or "false", and src not present-but-empty.
func Eligible(ctx context.Context, el dom.Element) (bool, error) {
	c, ok, err := el.Attr(ctx, "controls")
	if err != nil {
		return false, err
	}
	if ok && c != "false" {
		return false, nil
	}
	src, ok, err := el.Attr(ctx, "src")
	if err != nil {
		return false, err
	}
	if ok && src == "" {
		return false, nil
	}
	return true, nil
}

// Apply scans every video of doc and, when activate is true, sets
// controls="true" on the eligible ones. Controls are never removed.
func Apply(ctx context.Context, doc dom.Document, activate bool) (Result, error) {
	var res Result
	videos, err := doc.QueryAll(ctx, "video")
	if err != nil {
		return res, fmt.Errorf("controls: query: %w", err)
	}
	res.Videos = len(videos)
	for _, v := range videos {
		ok, err := Eligible(ctx, v)
		if err != nil {
			return res, fmt.Errorf("controls: inspect: %w", err)
		}
		if !ok {
			continue
		}
		res.Eligible++
		if !activate {
			continue
		}
		if err := v.SetAttr(ctx, "controls", "true"); err != nil {
			return res, fmt.Errorf("controls: enable: %w", err)
		}
		res.Enabled++
	}
	return res, nil
}
