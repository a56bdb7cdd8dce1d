package source

import "strings"

// Filter decides whether a piece of text is about a given ticker. Broad
// sources (Reddit search, generic finance feeds) return plenty of posts that
// merely co-mention a symbol string; the filter keeps cashtag hits, the bare
// symbol, and configured company aliases (e.g. NVDA -> "nvidia").
type Filter struct {
	aliases map[string][]string
	exclude []string
}

// NewFilter creates a filter with per-ticker aliases and global exclusions.
func NewFilter(aliases map[string][]string, exclude []string) *Filter {
	normalized := make(map[string][]string, len(aliases))
	for ticker, words := range aliases {
		lowered := make([]string, len(words))
		for i, w := range words {
			lowered[i] = strings.ToLower(w)
		}
		normalized[strings.ToUpper(ticker)] = lowered
	}

	excluded := make([]string, len(exclude))
	for i, w := range exclude {
		excluded[i] = strings.ToLower(w)
	}

	return &Filter{aliases: normalized, exclude: excluded}
}

// MatchesTicker returns true if text mentions the ticker as a cashtag, a
// standalone symbol, or one of its configured aliases.
func (f *Filter) MatchesTicker(text, ticker string) bool {
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}

	symbol := strings.ToLower(strings.TrimSpace(ticker))
	if symbol == "" {
		return false
	}

	if strings.Contains(lower, "$"+symbol) {
		return true
	}
	if containsWord(lower, symbol) {
		return true
	}

	for _, alias := range f.aliases[strings.ToUpper(ticker)] {
		if strings.Contains(lower, alias) {
			return true
		}
	}
	return false
}

// containsWord reports whether word appears in text bounded by non-alphanumeric
// runes, so "amd" does not match inside "amendment".
func containsWord(text, word string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start

		leftOK := idx == 0 || !isAlnum(text[idx-1])
		end := idx + len(word)
		rightOK := end >= len(text) || !isAlnum(text[end])
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
	}
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
