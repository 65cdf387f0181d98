package database

// NewWatchEntry carries the fields of a chain append. The repository
// assigns the id and creation timestamp.
type NewWatchEntry struct {
	SourceID    string
	PreviousID  *string
	ContentHash string
}

// NewArticle carries the fields of an article insert.
type NewArticle struct {
	WatchlogID   string
	Title        string
	URI          string
	Description  *string
	IsNewsworthy bool
}

// ArticleForExtraction identifies an article whose readable body has
// not been fetched yet.
type ArticleForExtraction struct {
	ID  string
	URI string
}

type SourceRepository interface {
	GetActiveSource(sourceID string) (*Source, error)
	ListActiveSources() ([]Source, error)
	GetSourceCount() (int, error)
}

type WatchLogRepository interface {
	GetLatestEntry(sourceID string) (*WatchEntry, error)
	InsertEntry(entry NewWatchEntry) (*WatchEntry, error)
	GetEntryCount(sourceID string) (int, error)
}

type ArticleRepository interface {
	InsertArticle(article NewArticle) (*Article, error)
	GetArticleCount() (int, error)
	GetArticlesForExtraction(limit int) ([]ArticleForExtraction, error)
	UpdateArticleContent(articleID string, content string) error
}
