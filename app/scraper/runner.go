package scraper

import (
	"context"
	"fmt"
)

// Runner serves scrapes against named rulesets, opening a fresh browser
// session per scrape so a crashed page never poisons later runs.
type Runner struct {
	rulesets  map[string]*Ruleset
	config    Config
	headless  bool
	userAgent string
}

func NewRunner(rulesets map[string]*Ruleset, config Config, headless bool, userAgent string) *Runner {
	return &Runner{
		rulesets:  rulesets,
		config:    config,
		headless:  headless,
		userAgent: userAgent,
	}
}

func (r *Runner) RulesetNames() []string {
	names := make([]string, 0, len(r.rulesets))
	for name := range r.rulesets {
		names = append(names, name)
	}
	return names
}

func (r *Runner) Scrape(ctx context.Context, rulesetName, url string, maxItems int) ([]Item, error) {
	ruleset, ok := r.rulesets[rulesetName]
	if !ok {
		return nil, fmt.Errorf("unknown ruleset %q", rulesetName)
	}

	session := NewSession(r.headless, r.userAgent)
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.Close()

	return New(ruleset, session, r.config).Collect(ctx, url, maxItems)
}
