package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"

	"github.com/puteus/puteus/app/database"
)

// ErrUnsupportedSelectorKind is returned for selector kinds the
// extractor does not know. A bad kind is a configuration problem, not
// something retries can fix.
var ErrUnsupportedSelectorKind = errors.New("unsupported selector kind")

// ExtractionError wraps a parse or evaluation failure with the selector
// and kind that caused it.
type ExtractionError struct {
	Selector string
	Kind     database.SelectorKind
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed with %s selector %q: %v", e.Kind, e.Selector, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extract pulls the watched text out of raw content using the given
// selector. Empty content yields an empty string, an empty selector
// passes the content through unmodified.
func Extract(content, selector string, kind database.SelectorKind) (string, error) {
	if content == "" {
		slog.Warn("Empty content provided for extraction")
		return "", nil
	}

	if selector == "" {
		slog.Debug("No selector provided, returning full content")
		return content, nil
	}

	var extracted string
	var err error

	switch kind {
	case database.SelectorKindCSS:
		extracted, err = extractCSS(content, selector)
	case database.SelectorKindXPath:
		extracted, err = extractXPath(content, selector)
	case database.SelectorKindRegex:
		extracted, err = extractRegex(content, selector)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSelectorKind, kind)
	}

	if err != nil {
		return "", &ExtractionError{Selector: selector, Kind: kind, Err: err}
	}

	slog.Debug("Content extracted", "kind", string(kind), "selector", selector, "length", len(extracted))
	return extracted, nil
}

func extractCSS(content, selector string) (string, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return "", fmt.Errorf("failed to compile CSS selector: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var parts []string
	doc.FindMatcher(matcher).Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(sel.Text()))
	})

	return strings.Join(parts, "\n"), nil
}

func extractXPath(content, selector string) (string, error) {
	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, selector)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate XPath expression: %w", err)
	}

	parts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		parts = append(parts, strings.TrimSpace(htmlquery.InnerText(node)))
	}

	return strings.Join(parts, "\n"), nil
}

// extractRegex joins all non-overlapping matches with newlines. When
// the pattern contains capture groups, the first group of each match is
// taken instead of the whole match.
func extractRegex(content, selector string) (string, error) {
	re, err := regexp.Compile(selector)
	if err != nil {
		return "", fmt.Errorf("failed to compile regex: %w", err)
	}

	if re.NumSubexp() == 0 {
		return strings.Join(re.FindAllString(content, -1), "\n"), nil
	}

	var parts []string
	for _, match := range re.FindAllStringSubmatch(content, -1) {
		parts = append(parts, match[1])
	}

	return strings.Join(parts, "\n"), nil
}
