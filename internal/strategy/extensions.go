package strategy

import (
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/text/cases"
)

// ExtensionPolicy gates file extensions against an allow-list. Entries are
// matched case-insensitively and may be globs, e.g. "TIF*". An empty list
// allows every extension.
type ExtensionPolicy struct {
	allowed  []string
	filter   string
	matchers []glob.Glob
}

// NewExtensionPolicy compiles allowed. Entries that are not valid globs are
// matched literally.
func NewExtensionPolicy(allowed []string) *ExtensionPolicy {
	policy := &ExtensionPolicy{}
	raw := make([]string, 0, len(allowed))
	for _, entry := range allowed {
		entry = strings.TrimPrefix(strings.TrimSpace(entry), ".")
		if entry == "" {
			continue
		}
		raw = append(raw, entry)
		policy.allowed = append(policy.allowed, strings.ToUpper(entry))

		folded := fold(entry)
		matcher, err := glob.Compile(folded)
		if err != nil {
			matcher, _ = glob.Compile(glob.QuoteMeta(folded))
		}
		policy.matchers = append(policy.matchers, matcher)
	}
	policy.filter = strings.Join(raw, ",")
	return policy
}

// Unrestricted reports whether the policy allows every extension.
func (p *ExtensionPolicy) Unrestricted() bool {
	return p == nil || len(p.matchers) == 0
}

// Allows reports whether ext, with or without a leading dot, is permitted.
func (p *ExtensionPolicy) Allows(ext string) bool {
	if p.Unrestricted() {
		return true
	}
	candidate := fold(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if candidate == "" {
		return false
	}
	for _, matcher := range p.matchers {
		if matcher.Match(candidate) {
			return true
		}
	}
	return false
}

// Allowed returns the upper-cased allow-list.
func (p *ExtensionPolicy) Allowed() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.allowed...)
}

// Filter returns the allow-list joined for the listing "extension" parameter.
func (p *ExtensionPolicy) Filter() string {
	if p == nil {
		return ""
	}
	return p.filter
}

// ExtensionOf returns the upper-cased extension of filename, or "" when the
// name has no dot.
func ExtensionOf(filename string) string {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 {
		return ""
	}
	return strings.ToUpper(filename[dot+1:])
}

func fold(value string) string {
	return cases.Fold().String(value)
}
