package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaults = []string{"token", "session", "key", "password", "auth", "sid", "access_token", "api_key"}

func TestURLStripsSensitiveParams(t *testing.T) {
	s := New(defaults)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no query", "https://example.com/path", "https://example.com/path"},
		{"nothing sensitive", "https://example.com/?q=go&page=2", "https://example.com/?q=go&page=2"},
		{"drops one", "https://example.com/?q=go&token=abc", "https://example.com/?q=go"},
		{"drops all", "https://example.com/?token=abc&sid=1", "https://example.com/"},
		{"keeps order", "https://e.com/?b=2&key=x&a=1", "https://e.com/?b=2&a=1"},
		{"case-insensitive", "https://e.com/?Access_Token=x&q=1", "https://e.com/?q=1"},
		{"keeps blank values", "https://e.com/?empty=&auth=1&flag", "https://e.com/?empty=&flag"},
		{"keeps fragment", "https://e.com/p?password=x&q=1#section", "https://e.com/p?q=1#section"},
		{"fragment only", "https://e.com/p#token=abc", "https://e.com/p#token=abc"},
		{"repeated names", "https://e.com/?session=1&q=a&session=2", "https://e.com/?q=a"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.URL(tc.in))
		})
	}
}

func TestURLIsIdempotent(t *testing.T) {
	s := New(defaults)
	inputs := []string{
		"https://e.com/?token=1&q=2#frag",
		"https://e.com/?api_key=1",
		"https://e.com/?&&q=2&&",
		"not a url ?? token=1",
	}
	for _, in := range inputs {
		once := s.URL(in)
		assert.Equal(t, once, s.URL(once), in)
	}
}

func TestZeroAndNilSanitizerPassThrough(t *testing.T) {
	var nilSanitizer *Sanitizer
	assert.Equal(t, "https://e.com/?token=1", nilSanitizer.URL("https://e.com/?token=1"))
	assert.Equal(t, "https://e.com/?token=1", New(nil).URL("https://e.com/?token=1"))
}

func TestSensitive(t *testing.T) {
	s := New([]string{" API-Secret "})
	assert.True(t, s.Sensitive("api-secret"))
	assert.True(t, s.Sensitive("API-SECRET"))
	assert.False(t, s.Sensitive("api"))
}
