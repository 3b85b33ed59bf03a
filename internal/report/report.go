// Package report renders command results for the terminal, either as
// human-readable text or as indented JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/btraven00/phishguard/internal/analysis"
)

// Output formats.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
)

// Printer writes results in one format.
type Printer struct {
	out    io.Writer
	format string

	ok   *color.Color
	bad  *color.Color
	dim  *color.Color
	bold *color.Color
}

// New returns a Printer for format ("human" or "json").
func New(out io.Writer, format string) (*Printer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatHuman
	}

	if format != FormatHuman && format != FormatJSON {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return &Printer{
		out:    out,
		format: format,
		ok:     color.New(color.FgGreen),
		bad:    color.New(color.FgRed),
		dim:    color.New(color.Faint),
		bold:   color.New(color.Bold),
	}, nil
}

// AnalysisReport is the JSON shape of an analysis run.
type AnalysisReport struct {
	Mode    analysis.Mode    `json:"mode"`
	Items   []analysis.Item  `json:"items"`
	Summary analysis.Summary `json:"summary"`
}

// Analysis prints the result items of a submission cycle.
func (p *Printer) Analysis(mode analysis.Mode, items []analysis.Item) error {
	if items == nil {
		items = []analysis.Item{}
	}

	summary := analysis.Summarize(items)

	if p.format == FormatJSON {
		return p.json(AnalysisReport{Mode: mode, Items: items, Summary: summary})
	}

	for _, it := range items {
		marker := p.ok.Sprint("✅")
		if !it.OK() {
			marker = p.bad.Sprint("❌")
		}

		label := it.Input
		if it.Type == analysis.ItemTypeURLs {
			label = fmt.Sprintf("%d URLs", it.Count)
		}

		fmt.Fprintf(p.out, "%s %s [%s] %s\n", marker, p.bold.Sprint(it.ID), it.Type, label)

		if it.OK() {
			fmt.Fprintf(p.out, "   %s\n", p.dim.Sprint(compact(it.Data)))
		} else {
			fmt.Fprintf(p.out, "   %s\n", p.bad.Sprint(it.Error))
		}
	}

	fmt.Fprintf(p.out, "📋 %d item(s): %d succeeded, %d failed\n", summary.Total, summary.Succeeded, summary.Failed)

	return nil
}

// URLs prints an extraction result.
func (p *Printer) URLs(urls []string) error {
	if urls == nil {
		urls = []string{}
	}

	if p.format == FormatJSON {
		return p.json(struct {
			URLs  []string `json:"urls"`
			Count int      `json:"count"`
		}{URLs: urls, Count: len(urls)})
	}

	if len(urls) == 0 {
		fmt.Fprintln(p.out, "No URLs found.")
		return nil
	}

	for _, u := range urls {
		fmt.Fprintln(p.out, u)
	}

	return nil
}

// Subscription prints the outcome of a subscription request.
func (p *Printer) Subscription(channel, address, message string) error {
	if p.format == FormatJSON {
		return p.json(struct {
			Channel string `json:"channel"`
			Address string `json:"address"`
			Message string `json:"message"`
		}{Channel: channel, Address: address, Message: message})
	}

	fmt.Fprintf(p.out, "%s %s\n", p.ok.Sprint("✅"), message)

	return nil
}

// Value prints any value; human output uses indented JSON as well.
func (p *Printer) Value(v any) error {
	return p.json(v)
}

func (p *Printer) json(v any) error {
	encoder := json.NewEncoder(p.out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

func compact(data json.RawMessage) string {
	if len(data) == 0 {
		return "null"
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}

	return buf.String()
}
