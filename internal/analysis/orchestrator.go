// Package analysis drives a submission cycle: it sends pending URLs and
// email content to the scanner and collects one result item per unit.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/btraven00/phishguard/internal/gateway"
	"github.com/btraven00/phishguard/internal/logx"
	"github.com/btraven00/phishguard/internal/metrics"
)

// ErrNothingToAnalyze is returned when the draft holds no URL and no text.
var ErrNothingToAnalyze = errors.New("please add at least one URL or enter email text to analyze")

// Paths are the scanner endpoints, relative to the API base URL.
type Paths struct {
	URL   string
	Batch string
	Email string
}

// DefaultPaths returns the scanner's standard endpoints.
func DefaultPaths() Paths {
	return Paths{URL: "/scan/url", Batch: "/scan/urls", Email: "/scan/email"}
}

// Options configures an Orchestrator.
type Options struct {
	Gateway gateway.Caller
	Metrics *metrics.Metrics
	Mode    Mode
	Paths   Paths
}

// Orchestrator submits drafts. Submissions are strictly sequential.
type Orchestrator struct {
	gateway gateway.Caller
	metrics *metrics.Metrics
	mode    Mode
	paths   Paths
}

// New creates an Orchestrator; empty paths fall back to DefaultPaths.
func New(opts Options) *Orchestrator {
	def := DefaultPaths()

	paths := opts.Paths
	if paths.URL == "" {
		paths.URL = def.URL
	}

	if paths.Batch == "" {
		paths.Batch = def.Batch
	}

	if paths.Email == "" {
		paths.Email = def.Email
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModePerItem
	}

	return &Orchestrator{gateway: opts.Gateway, metrics: opts.Metrics, mode: mode, paths: paths}
}

// Mode returns the configured submission mode.
func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// Analyze submits every unit in d and returns one item per unit: one per
// URL in per-item mode or a single aggregate item in batched mode, plus one
// for the email text when present. Failed units are recorded on their item
// and never retried. d is emptied once the cycle completes, whatever the
// outcomes were.
func (o *Orchestrator) Analyze(ctx context.Context, d *Draft) ([]Item, error) {
	if d.Empty() {
		return nil, ErrNothingToAnalyze
	}

	var urls []string
	if d.URLs != nil {
		urls = d.URLs.URLs()
	}

	text := trimmed(d.Text)

	defer d.clear()

	ctx = logx.With(ctx, "mode", string(o.mode))
	log := logx.FromContext(ctx)
	log.Info("analysis started", "urls", len(urls), "has_text", text != "")

	items := make([]Item, 0, len(urls)+1)

	switch o.mode {
	case ModeBatched:
		if len(urls) > 0 {
			items = append(items, o.submitBatch(ctx, urls))
		}
	default:
		for i, u := range urls {
			items = append(items, o.submitURL(ctx, i, u))
		}
	}

	if text != "" {
		items = append(items, o.submitEmail(ctx, text))
	}

	o.record(items)

	s := Summarize(items)
	log.Info("analysis finished", "items", s.Total, "succeeded", s.Succeeded, "failed", s.Failed)

	return items, nil
}

func (o *Orchestrator) submitURL(ctx context.Context, i int, u string) Item {
	item := Item{ID: fmt.Sprintf("url-%d", i), Type: ItemTypeURL, Input: u}
	data, err := o.gateway.Call(ctx, o.paths.URL, urlRequest{URL: u})

	return settle(item, data, err)
}

func (o *Orchestrator) submitBatch(ctx context.Context, urls []string) Item {
	item := Item{ID: "urls-1", Type: ItemTypeURLs, Inputs: urls, Count: len(urls)}
	data, err := o.gateway.Call(ctx, o.paths.Batch, batchRequest{URLs: urls})

	return settle(item, data, err)
}

func (o *Orchestrator) submitEmail(ctx context.Context, text string) Item {
	item := Item{ID: "email-1", Type: ItemTypeEmail}
	data, err := o.gateway.Call(ctx, o.paths.Email, emailRequest{Text: text})

	return settle(item, data, err)
}

func settle(item Item, data json.RawMessage, err error) Item {
	if err != nil {
		item.Status = StatusError
		item.Error = err.Error()

		return item
	}

	item.Status = StatusSuccess
	item.Data = data

	return item
}

func (o *Orchestrator) record(items []Item) {
	if o.metrics == nil {
		return
	}

	for _, it := range items {
		o.metrics.AnalysisItems.WithLabelValues(string(it.Type), string(it.Status)).Inc()
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
