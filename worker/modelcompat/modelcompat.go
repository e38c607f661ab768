// Package modelcompat parses "provider:model" identifiers and matches them
// against a worker's compatible_models glob allow-list (spec §4.9).
package modelcompat

import (
	"fmt"
	"regexp"
	"strings"
)

// KnownProviders is the set of recognized model providers. Resolution fails
// fast for anything else so typos surface at worker-load time rather than at
// the first model call.
var KnownProviders = map[string]bool{
	"anthropic":  true,
	"openai":     true,
	"google":     true,
	"openrouter": true,
}

// ID is a parsed "provider:model" identifier.
type ID struct {
	Provider string
	Model    string
}

// String renders the identifier back to "provider:model" form.
func (id ID) String() string {
	return id.Provider + ":" + id.Model
}

// Parse splits raw on the first colon into a provider and model name and
// validates the provider against KnownProviders. Anything that does not
// contain a colon, or whose provider is unrecognized, is rejected.
func Parse(raw string) (ID, error) {
	idx := strings.IndexByte(raw, ':')
	if idx <= 0 || idx == len(raw)-1 {
		return ID{}, fmt.Errorf("modelcompat: invalid model identifier %q, want \"provider:model\"", raw)
	}
	provider, model := raw[:idx], raw[idx+1:]
	if !KnownProviders[provider] {
		return ID{}, fmt.Errorf("modelcompat: unknown provider %q", provider)
	}
	return ID{Provider: provider, Model: model}, nil
}

// Match reports whether id satisfies pattern under glob semantics: regex
// metacharacters other than "*" are escaped, "*" becomes ".*", and the
// result is anchored at both ends. Match is reflexive for literal patterns:
// Match(id, id) is always true.
func Match(id, pattern string) bool {
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(id)
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		if r == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

// Validate checks that id (in "provider:model" string form) matches at
// least one pattern in compatibleModels. A non-nil, empty compatibleModels
// slice is itself a configuration error: an author who declares the field
// but lists nothing has made every model incompatible, which is never the
// intent.
func Validate(id string, compatibleModels []string) error {
	if compatibleModels == nil {
		return nil
	}
	if len(compatibleModels) == 0 {
		return fmt.Errorf("modelcompat: compatible_models is declared but empty")
	}
	for _, p := range compatibleModels {
		if Match(id, p) {
			return nil
		}
	}
	return fmt.Errorf("modelcompat: %q does not match any of %v", id, compatibleModels)
}
