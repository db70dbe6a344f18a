package catalog

import (
	"sort"
	"strings"
)

// CategoryMap is one segment's static mapping from on-disk folder token
// ("1-phones") to canonical category name ("phones"). Folder tokens are
// segment-specific: two segments may assign different ordinals to the
// same semantic category.
type CategoryMap map[string]string

// Resolve maps a user-supplied category string to the canonical name.
// Matching is case-insensitive and tried in precedence order: exact
// canonical name, exact folder token, then requested-contained-in-token
// for endpoints that accept abbreviated categories. A miss is a normal
// negative result, not an error.
func (m CategoryMap) Resolve(requested string) (string, bool) {
	req := strings.ToLower(strings.TrimSpace(requested))
	if req == "" {
		return "", false
	}

	for _, name := range m {
		if strings.ToLower(name) == req {
			return name, true
		}
	}
	for token, name := range m {
		if strings.ToLower(token) == req {
			return name, true
		}
	}
	for token, name := range m {
		if strings.Contains(strings.ToLower(token), req) {
			return name, true
		}
	}
	return "", false
}

// FolderToken is the inverse lookup: the folder token for a category
// resolvable by Resolve.
func (m CategoryMap) FolderToken(requested string) (string, bool) {
	name, ok := m.Resolve(requested)
	if !ok {
		return "", false
	}
	for token, n := range m {
		if n == name {
			return token, true
		}
	}
	return "", false
}

// SortedTokens returns the folder tokens in lexical order, which matches
// the ordinal-prefixed on-disk layout.
func (m CategoryMap) SortedTokens() []string {
	tokens := make([]string, 0, len(m))
	for token := range m {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
