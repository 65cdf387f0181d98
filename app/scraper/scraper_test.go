package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeElement returns canned values per field selector.
type fakeElement struct {
	text     string
	html     string
	attrs    map[string]string
	children map[string]*fakeElement
	textErr  error
}

func (e *fakeElement) Child(selector string) (Element, error) {
	child, ok := e.children[selector]
	if !ok {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return child, nil
}

func (e *fakeElement) Text() (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) HTML() (string, error) {
	return e.html, nil
}

func (e *fakeElement) TextContent() (string, error) {
	return e.text, nil
}

func (e *fakeElement) Attr(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) ScrollIntoView() error {
	return nil
}

func (e *fakeElement) Height() (float64, error) {
	return 100, nil
}

// fakePage serves successive chunks of elements, advancing on scroll.
type fakePage struct {
	chunks      [][]*fakeElement
	chunkIndex  int
	navigateErr error
	navigations int
	scrolls     int
	scrollErr   error
	closed      bool
	elementsErr error
}

func (p *fakePage) Navigate(url string) error {
	p.navigations++
	return p.navigateErr
}

func (p *fakePage) Elements(selector string) ([]Element, error) {
	if p.elementsErr != nil {
		return nil, p.elementsErr
	}
	if p.chunkIndex >= len(p.chunks) {
		return nil, nil
	}
	chunk := p.chunks[p.chunkIndex]
	elements := make([]Element, 0, len(chunk))
	for _, el := range chunk {
		elements = append(elements, el)
	}
	return elements, nil
}

func (p *fakePage) Scroll(deltaY float64) error {
	if p.scrollErr != nil {
		return p.scrollErr
	}
	p.scrolls++
	if p.chunkIndex < len(p.chunks)-1 {
		p.chunkIndex++
	}
	return nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func postElement(title string) *fakeElement {
	return &fakeElement{
		children: map[string]*fakeElement{
			".title": {text: title},
		},
	}
}

func testRuleset() *Ruleset {
	return &Ruleset{
		Name:                  "test",
		PostSelector:          ".post",
		ScrollElementSelector: ".post",
		Fields: map[string]FieldSelector{
			"title": {Selector: ".title", Attribute: AttrInnerText},
		},
	}
}

func fastScraper(ruleset *Ruleset) *Scraper {
	config := DefaultConfig()
	config.ScrollTimeoutMs = 0
	config.LoadTimeoutMs = 0
	s := New(ruleset, nil, config)
	// Keep retry delays out of test runtime
	s.navigatePolicy.Schedule = nil
	s.chunkPolicy.Schedule = nil
	s.scrollPolicy.Schedule = nil
	s.collectPolicy.Schedule = nil
	return s
}

func TestCollectStopsAtMaxItems(t *testing.T) {
	page := &fakePage{chunks: [][]*fakeElement{
		{postElement("one"), postElement("two")},
		{postElement("three"), postElement("four")},
	}}

	items, err := fastScraper(testRuleset()).collectFromPage(context.Background(), page, "https://example.com", 3)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("Expected exactly 3 items, got %d", len(items))
	}
	if page.navigations != 1 {
		t.Errorf("Expected 1 navigation, got %d", page.navigations)
	}
}

func TestCollectDedupsAcrossScrolls(t *testing.T) {
	// Second chunk repeats "two" after the scroll
	page := &fakePage{chunks: [][]*fakeElement{
		{postElement("one"), postElement("two")},
		{postElement("two"), postElement("three")},
	}}

	items, err := fastScraper(testRuleset()).collectFromPage(context.Background(), page, "https://example.com", 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	titles := make(map[string]int)
	for _, item := range items {
		titles[item["title"]]++
	}
	if len(items) != 3 {
		t.Errorf("Expected 3 unique items, got %d", len(items))
	}
	for title, count := range titles {
		if count != 1 {
			t.Errorf("Expected item %q exactly once, got %d", title, count)
		}
	}
}

func TestCollectStallReturnsPartialResults(t *testing.T) {
	// One chunk only: the target of 10 can never be reached
	page := &fakePage{chunks: [][]*fakeElement{
		{postElement("one"), postElement("two")},
	}}

	items, err := fastScraper(testRuleset()).collectFromPage(context.Background(), page, "https://example.com", 10)
	if err != nil {
		t.Fatalf("Expected partial results without error, got: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 partial items, got %d", len(items))
	}
}

func TestCollectZeroMaxItemsSkipsExtraction(t *testing.T) {
	page := &fakePage{chunks: [][]*fakeElement{
		{postElement("one")},
	}}

	items, err := fastScraper(testRuleset()).collectFromPage(context.Background(), page, "https://example.com", 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty result, got %d items", len(items))
	}
	if page.navigations != 1 {
		t.Errorf("Expected initial page load to happen, got %d navigations", page.navigations)
	}
	if page.scrolls != 0 {
		t.Errorf("Expected no scrolling for max_items=0, got %d scrolls", page.scrolls)
	}
}

func TestCollectNegativeMaxUsesDefault(t *testing.T) {
	page := &fakePage{chunks: [][]*fakeElement{
		{postElement("one")},
	}}

	s := fastScraper(testRuleset())
	s.config.DefaultMaxPosts = 1

	items, err := s.collectFromPage(context.Background(), page, "https://example.com", -1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected default cap of 1 item, got %d", len(items))
	}
}

func TestCollectNavigationFailureAborts(t *testing.T) {
	page := &fakePage{navigateErr: errors.New("net::ERR_CONNECTION_REFUSED")}

	_, err := fastScraper(testRuleset()).collectFromPage(context.Background(), page, "https://example.com", 5)
	if err == nil {
		t.Fatal("Expected navigation error")
	}

	var navErr *NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("Expected NavigationError, got: %T", err)
	}
	if page.navigations != 3 {
		t.Errorf("Expected 3 navigation attempts, got %d", page.navigations)
	}
}

func TestCollectBrokenItemSkipped(t *testing.T) {
	broken := &fakeElement{children: map[string]*fakeElement{}} // missing .title child
	page := &fakePage{chunks: [][]*fakeElement{
		{postElement("one"), broken, postElement("two")},
	}}

	items, err := fastScraper(testRuleset()).collectFromPage(context.Background(), page, "https://example.com", 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected broken item to be skipped, got %d items", len(items))
	}
}

func TestCollectChunkQueryFailureYieldsEmptyResult(t *testing.T) {
	page := &fakePage{elementsErr: errors.New("page crashed")}

	items, err := fastScraper(testRuleset()).collectFromPage(context.Background(), page, "https://example.com", 5)
	if err != nil {
		t.Fatalf("Expected absorbed chunk failure, got: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestNewPageOutsideScopeFails(t *testing.T) {
	session := NewSession(true, "test-agent")

	_, err := session.NewPage()
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got: %v", err)
	}
}

func TestRandomUserAgentNeverEmpty(t *testing.T) {
	if randomUserAgent() == "" {
		t.Error("Expected a non-empty user agent")
	}
}

func TestNewSessionDefaultsToRandomAgent(t *testing.T) {
	session := NewSession(true, "")
	if session.userAgent == "" {
		t.Error("Expected an empty user agent to default to a random desktop agent")
	}
}

func TestNewSessionKeepsExplicitAgent(t *testing.T) {
	session := NewSession(true, "custom-agent/1.0")
	if session.userAgent != "custom-agent/1.0" {
		t.Errorf("Expected explicit user agent kept, got: %s", session.userAgent)
	}
}
