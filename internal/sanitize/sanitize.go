// Package sanitize strips credential-bearing query parameters from URLs.
package sanitize

import "strings"

// Sanitizer removes query parameters whose names appear in its set.
// The zero value removes nothing.
type Sanitizer struct {
	params map[string]struct{}
}

// New returns a Sanitizer for the given parameter names, matched
// case-insensitively.
func New(params []string) *Sanitizer {
	s := &Sanitizer{params: make(map[string]struct{}, len(params))}
	for _, p := range params {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			s.params[p] = struct{}{}
		}
	}
	return s
}

// Sensitive reports whether name is stripped by s.
func (s *Sanitizer) Sensitive(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.params[strings.ToLower(name)]
	return ok
}

// URL returns raw with sensitive query parameters removed. Everything else,
// including parameter order, blank values and the fragment, is preserved
// textually. Applying URL twice gives the same result as applying it once.
func (s *Sanitizer) URL(raw string) string {
	if s == nil || len(s.params) == 0 || raw == "" {
		return raw
	}

	rest, fragment, hasFragment := strings.Cut(raw, "#")
	base, query, hasQuery := strings.Cut(rest, "?")
	if !hasQuery {
		return raw
	}

	kept := make([]string, 0, strings.Count(query, "&")+1)
	dropped := false
	for _, part := range strings.Split(query, "&") {
		name, _, _ := strings.Cut(part, "=")
		if s.Sensitive(name) {
			dropped = true
			continue
		}
		kept = append(kept, part)
	}
	if !dropped {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	b.WriteString(base)
	if q := strings.Join(kept, "&"); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}
