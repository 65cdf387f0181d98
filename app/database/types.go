package database

// SelectorKind is the extraction strategy tag attached to a source.
type SelectorKind string

const (
	SelectorKindCSS   SelectorKind = "CSS"
	SelectorKindXPath SelectorKind = "XPATH"
	SelectorKindRegex SelectorKind = "REGEX"
)

// SourceType classifies the origin of a watched source.
type SourceType string

const (
	SourceTypeRSS      SourceType = "RSS"
	SourceTypeWebpage  SourceType = "WEBPAGE"
	SourceTypeTelegram SourceType = "TELEGRAM"
)
