// Package strings parses list-valued settings.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value into trimmed, non-empty items.
// Items equal under Unicode case folding are kept once, first spelling wins.
//
//	SplitList(" https://a.example, ,HTTPS://A.example,https://b.example")
//	// []string{"https://a.example", "https://b.example"}
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		item := strings.TrimSpace(p)
		if item == "" || containsFold(result, item) {
			continue
		}
		result = append(result, item)
	}
	return result
}

func containsFold(items []string, s string) bool {
	for _, it := range items {
		if strings.EqualFold(it, s) {
			return true
		}
	}
	return false
}
