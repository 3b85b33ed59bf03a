package extractor

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// plainURLPattern matches links written out in text rather than wrapped in anchors.
var plainURLPattern = regexp.MustCompile(`(?i)https?://[^\s<>"']+`)

// ExtractURLs returns the absolute http(s) URLs referenced by an HTML or
// plain-text fragment. Anchor hrefs come first, then links found in the
// visible text; duplicates are dropped keeping the first occurrence.
//
// Malformed markup never fails: whatever the parser recovers is scanned,
// and a fragment that cannot be parsed at all yields no URLs.
func ExtractURLs(fragment string) []string {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	found := anchorURLs(doc)
	found = append(found, textURLs(doc)...)

	return dedupe(found)
}

// ExtractFromReader reads a whole fragment from r and extracts its URLs.
func ExtractFromReader(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fragment: %w", err)
	}

	return ExtractURLs(string(data)), nil
}

func anchorURLs(doc *goquery.Document) []string {
	var urls []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)

		if hasHTTPScheme(href) {
			urls = append(urls, href)
		}
	})

	return urls
}

func textURLs(doc *goquery.Document) []string {
	var urls []string

	for _, chunk := range visibleText(doc) {
		for _, m := range plainURLPattern.FindAllString(chunk, -1) {
			if u := trimTrailingPunctuation(m); hasHTTPScheme(u) && len(u) > len("http://") {
				urls = append(urls, u)
			}
		}
	}

	return urls
}

// visibleText returns text nodes in document order, skipping script and
// style content. Nodes are kept separate so adjacent elements never glue
// two words into one URL.
func visibleText(doc *goquery.Document) []string {
	var chunks []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				chunks = append(chunks, t)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Nodes {
		walk(n)
	}

	return chunks
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// trimTrailingPunctuation drops sentence punctuation glued to the end of a
// link in prose ("see https://x.test."). A closing parenthesis is kept when
// the URL opened one itself.
func trimTrailingPunctuation(u string) string {
	for len(u) > 0 {
		last := u[len(u)-1]

		switch {
		case strings.IndexByte(".,;:!?", last) >= 0:
			u = u[:len(u)-1]
		case last == ')' && strings.Count(u, "(") < strings.Count(u, ")"):
			u = u[:len(u)-1]
		default:
			return u
		}
	}

	return u
}

func dedupe(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))

	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}

		seen[u] = struct{}{}
		out = append(out, u)
	}

	return out
}
