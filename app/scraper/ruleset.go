package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attribute names the value pulled from a matched element. Anything
// other than the three special values is treated as an HTML attribute
// name.
const (
	AttrInnerText   = "INNER_TEXT"
	AttrInnerHTML   = "INNER_HTML"
	AttrTextContent = "TEXT_CONTENT"
)

// FieldSelector maps one item field to a sub-selector and attribute.
// An empty selector reads from the post element itself.
type FieldSelector struct {
	Selector  string `yaml:"selector"`
	Attribute string `yaml:"attribute"`
}

// Ruleset defines how to extract structured items from one site's
// dynamically loaded listing page.
type Ruleset struct {
	Name                  string                   `yaml:"-"` // derived from filename
	PostSelector          string                   `yaml:"post_selector"`
	ScrollElementSelector string                   `yaml:"scroll_element_selector"`
	Fields                map[string]FieldSelector `yaml:"fields"`
}

// Item is one extracted record, field name to extracted value.
type Item map[string]string

// Key derives the deduplication identity of an item. Every ruleset
// field participates: two items differing in any field are distinct.
// Fields are sorted so the key is stable regardless of map order.
func (i Item) Key() string {
	fields := make([]string, 0, len(i))
	for name, value := range i {
		fields = append(fields, name+"="+value)
	}
	sort.Strings(fields)

	digest := sha256.Sum256([]byte(strings.Join(fields, "\x00")))
	return hex.EncodeToString(digest[:])
}

// LoadRulesets reads all yaml ruleset files from dir, keyed by name.
// A missing directory yields an empty map.
func LoadRulesets(dir string) (map[string]*Ruleset, error) {
	rulesets := make(map[string]*Ruleset)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return rulesets, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find yaml files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find yml files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		ruleset, err := loadRulesetFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		rulesets[ruleset.Name] = ruleset
		slog.Debug("Loaded scraper ruleset", "name", ruleset.Name, "fields", len(ruleset.Fields))
	}

	return rulesets, nil
}

func loadRulesetFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var ruleset Ruleset
	if err := yaml.Unmarshal(data, &ruleset); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	base := filepath.Base(path)
	ruleset.Name = strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")

	setRulesetDefaults(&ruleset)

	if err := validateRuleset(&ruleset); err != nil {
		return nil, err
	}

	return &ruleset, nil
}

func setRulesetDefaults(ruleset *Ruleset) {
	if ruleset.ScrollElementSelector == "" {
		ruleset.ScrollElementSelector = ruleset.PostSelector
	}
	for name, field := range ruleset.Fields {
		if field.Attribute == "" {
			field.Attribute = AttrInnerText
			ruleset.Fields[name] = field
		}
	}
}

func validateRuleset(ruleset *Ruleset) error {
	if ruleset.PostSelector == "" {
		return fmt.Errorf("ruleset %q: post_selector is required", ruleset.Name)
	}
	if len(ruleset.Fields) == 0 {
		return fmt.Errorf("ruleset %q: at least one field is required", ruleset.Name)
	}
	return nil
}

// extractItem runs one post element through the field->selector mapping
func (r *Ruleset) extractItem(el Element) (Item, error) {
	item := make(Item, len(r.Fields))

	for name, field := range r.Fields {
		target := el
		if field.Selector != "" {
			child, err := el.Child(field.Selector)
			if err != nil {
				return nil, fmt.Errorf("failed to extract field %q: %w", name, err)
			}
			target = child
		}

		value, err := extractAttribute(target, field.Attribute)
		if err != nil {
			return nil, fmt.Errorf("failed to extract field %q: %w", name, err)
		}
		item[name] = value
	}

	return item, nil
}

func extractAttribute(el Element, attribute string) (string, error) {
	switch attribute {
	case AttrInnerText:
		return el.Text()
	case AttrInnerHTML:
		return el.HTML()
	case AttrTextContent:
		return el.TextContent()
	default:
		return el.Attr(attribute)
	}
}
