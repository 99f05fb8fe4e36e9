package cleaners

import (
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// RegisterDefaults registers all built-in cleaners with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(PrintableName, buildPrintable)
	r.Register(WhitespaceName, buildWhitespace)
	r.Register(DedupeLinesName, buildDedupeLines)
}

func buildPrintable(_ map[string]any) (driven.TextCleaner, error) {
	return NewPrintable(), nil
}

// buildWhitespace supports:
//   - max_blank_lines (int): consecutive blank lines kept (default: 1)
func buildWhitespace(cfg map[string]any) (driven.TextCleaner, error) {
	maxBlank := DefaultMaxBlankLines
	if v, ok := getIntFromConfig(cfg, "max_blank_lines"); ok && v >= 0 {
		maxBlank = v
	}
	return NewWhitespace(maxBlank), nil
}

// buildDedupeLines supports:
//   - min_length (int): shorter lines are never treated as repeated (default: 4)
func buildDedupeLines(cfg map[string]any) (driven.TextCleaner, error) {
	minLen := DefaultMinLineLength
	if v, ok := getIntFromConfig(cfg, "min_length"); ok && v > 0 {
		minLen = v
	}
	return NewDedupeLines(minLen), nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
