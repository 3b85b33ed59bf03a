package extractor

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "anchor before plain text",
			input:    `<a href="https://a.test">x</a> see https://b.test`,
			expected: []string{"https://a.test", "https://b.test"},
		},
		{
			name:     "anchor text repeating its href",
			input:    `<a href="https://a.test/login">https://a.test/login</a>`,
			expected: []string{"https://a.test/login"},
		},
		{
			name:     "plain text before anchor in source still lists anchor first",
			input:    `visit http://first.test then <a href="https://second.test">here</a>`,
			expected: []string{"https://second.test", "http://first.test"},
		},
		{
			name:     "non-http anchors ignored",
			input:    `<a href="mailto:x@y.test">m</a><a href="/relative">r</a><a href="javascript:void(0)">j</a>`,
			expected: nil,
		},
		{
			name:     "uppercase scheme in href",
			input:    `<a href="HTTPS://Upper.test/path">u</a>`,
			expected: []string{"HTTPS://Upper.test/path"},
		},
		{
			name:     "duplicates keep first-seen order",
			input:    `https://c.test https://a.test https://c.test <a href="https://a.test">a</a>`,
			expected: []string{"https://a.test", "https://c.test"},
		},
		{
			name:     "stops at quotes and angle brackets",
			input:    `plain "https://q.test/x"more and <b>https://r.test/y</b>`,
			expected: []string{"https://q.test/x", "https://r.test/y"},
		},
		{
			name:     "adjacent elements are not glued",
			input:    `<p>https://p.test/one</p><p>next</p>`,
			expected: []string{"https://p.test/one"},
		},
		{
			name:     "trailing sentence punctuation dropped",
			input:    `Reset at https://phish.test/reset. Or (https://phish.test/alt), thanks!`,
			expected: []string{"https://phish.test/reset", "https://phish.test/alt"},
		},
		{
			name:     "balanced parentheses kept",
			input:    `https://en.wiki.test/Go_(language)`,
			expected: []string{"https://en.wiki.test/Go_(language)"},
		},
		{
			name:     "script content ignored",
			input:    `<script>var u = "https://tracker.test/js";</script><p>hello</p>`,
			expected: nil,
		},
		{
			name:     "plain text without html",
			input:    "Dear user,\nplease verify at https://verify.test/account?id=1\nRegards",
			expected: []string{"https://verify.test/account?id=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractURLs(tt.input)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}

			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractURLs() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractURLs_MalformedAndEmpty(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t",
		"<<<>>>",
		"<a href=",
		`<div><a href="https://`,
		"<html><body><p>unclosed",
		"no links here at all",
		"http://",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("ExtractURLs panicked on %q: %v", in, r)
				}
			}()

			if got := ExtractURLs(in); len(got) != 0 {
				t.Errorf("expected no URLs for %q, got %q", in, got)
			}
		})
	}
}

func TestExtractURLs_RecoversFromBrokenMarkup(t *testing.T) {
	got := ExtractURLs(`<div><a href="https://ok.test">ok</a><span>see https://also.test`)
	want := []string{"https://ok.test", "https://also.test"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractURLs() = %q, want %q", got, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestExtractFromReader(t *testing.T) {
	got, err := ExtractFromReader(strings.NewReader(`<a href="http://r.test">r</a>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(got, []string{"http://r.test"}) {
		t.Errorf("unexpected URLs: %q", got)
	}

	if _, err := ExtractFromReader(failingReader{}); err == nil {
		t.Error("expected read error to propagate")
	}
}
