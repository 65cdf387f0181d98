package extract

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedText normalizes an RSS/Atom document into one "title|link" line
// per item. Feeds re-serialize with volatile noise (build dates, order
// of namespaces) on every fetch, so hashing the raw body would flag a
// change on every cycle.
func FeedText(content string) (string, error) {
	feed, err := gofeed.NewParser().ParseString(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse feed: %w", err)
	}

	lines := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		lines = append(lines, fmt.Sprintf("%s|%s", strings.TrimSpace(item.Title), item.Link))
	}

	return strings.Join(lines, "\n"), nil
}
