package crawler

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "fragment is stripped", in: "http://a.test/page#section", want: "http://a.test/page"},
		{name: "empty path becomes slash", in: "http://a.test", want: "http://a.test/"},
		{name: "default http port stripped", in: "http://a.test:80/page", want: "http://a.test/page"},
		{name: "default https port stripped", in: "https://a.test:443/page", want: "https://a.test/page"},
		{name: "non-default port kept", in: "http://a.test:8080/page", want: "http://a.test:8080/page"},
		{name: "host lowercased", in: "http://A.TEST/Page", want: "http://a.test/Page"},
		{name: "scheme lowercased", in: "HTTP://a.test/", want: "http://a.test/"},
		{name: "query preserved", in: "http://a.test/search?q=go&page=2", want: "http://a.test/search?q=go&page=2"},
		{name: "surrounding whitespace trimmed", in: "  http://a.test/  ", want: "http://a.test/"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"http://a.test",
		"http://A.test:80/x#frag",
		"https://a.test:443/path?q=1",
		"http://a.test/path/",
	}

	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: Normalize(%q) = %q, Normalize again = %q", in, once, twice)
		}
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{name: "relative URL", in: "/just/a/path"},
		{name: "mailto scheme", in: "mailto:user@a.test"},
		{name: "ftp scheme", in: "ftp://a.test/file"},
		{name: "missing host", in: "http:///path"},
		{name: "garbage", in: "://not a url"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Normalize(tt.in); !errors.Is(err, ErrInvalidURL) {
				t.Errorf("Normalize(%q) error = %v, want ErrInvalidURL", tt.in, err)
			}
		})
	}
}
