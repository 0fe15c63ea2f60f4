package middleware

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/aretw0/funnel/pkg/ports"
)

// Mask replaces the values of matching keys.
const Mask = "***"

type piiMiddleware struct {
	next     ports.KeyValueStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of JSON object keys
// matching the patterns. Values that are not JSON objects are stored untouched.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.KeyValueStore) ports.KeyValueStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Set(ctx context.Context, key, value string) error {
	if len(m.patterns) == 0 {
		return m.next.Set(ctx, key, value)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return m.next.Set(ctx, key, value)
	}

	maskMap(doc, m.patterns)

	masked, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return m.next.Set(ctx, key, string(masked))
}

func (m *piiMiddleware) Get(ctx context.Context, key string) (string, error) {
	return m.next.Get(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context, prefix string) ([]string, error) {
	return listNext(ctx, m.next, prefix)
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if masked {
			continue
		}

		switch child := v.(type) {
		case map[string]any:
			maskMap(child, patterns)
		case []any:
			for _, item := range child {
				if sub, ok := item.(map[string]any); ok {
					maskMap(sub, patterns)
				}
			}
		}
	}
}
