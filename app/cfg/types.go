package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	RulesetsDir       string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	FetchTimeout      int

	// Scraper configuration
	MaxRetries       int
	ScrollTimeoutMs  int
	LoadTimeoutMs    int
	DefaultMaxPosts  int
	Headless         bool
	BrowserUserAgent string

	// Extraction configuration
	ExtractBatchSize int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
