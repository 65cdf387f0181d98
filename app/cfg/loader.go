package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"puteus_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"puteus_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"puteus" description:"Database name"`

	// Application configuration
	RulesetsDir       string `long:"rulesets-dir" env:"RULESETS_DIR" default:"./rulesets" description:"Directory containing scraper ruleset files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for source checking"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	FetchTimeout      int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Per-attempt timeout for source fetches in seconds"`

	// Scraper configuration
	MaxRetries       int    `long:"max-retries" env:"MAX_RETRIES" default:"3" description:"Attempt ceiling for scraper retries"`
	ScrollTimeoutMs  int    `long:"scroll-timeout-ms" env:"SCROLL_TIMEOUT_MS" default:"500" description:"Pause after each scroll in milliseconds"`
	LoadTimeoutMs    int    `long:"load-timeout-ms" env:"LOAD_TIMEOUT_MS" default:"500" description:"Timeout for page loading in milliseconds"`
	DefaultMaxPosts  int    `long:"default-max-posts" env:"DEFAULT_MAX_POSTS" default:"50" description:"Default cap on items per scrape"`
	NoHeadless       bool   `long:"no-headless" env:"NO_HEADLESS" description:"Run the scraper browser with a visible window"`
	BrowserUserAgent string `long:"browser-user-agent" env:"BROWSER_USER_AGENT" description:"User agent for the scraper browser (default: random desktop agent)"`

	// Extraction configuration
	ExtractBatchSize int `long:"extract-batch-size" env:"EXTRACT_BATCH_SIZE" default:"20" description:"Articles per content extraction batch"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Puteus/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		RulesetsDir:       raw.RulesetsDir,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		FetchTimeout:      raw.FetchTimeout,
		MaxRetries:        raw.MaxRetries,
		ScrollTimeoutMs:   raw.ScrollTimeoutMs,
		LoadTimeoutMs:     raw.LoadTimeoutMs,
		DefaultMaxPosts:   raw.DefaultMaxPosts,
		Headless:          !raw.NoHeadless,
		BrowserUserAgent:  raw.BrowserUserAgent,
		ExtractBatchSize:  raw.ExtractBatchSize,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
