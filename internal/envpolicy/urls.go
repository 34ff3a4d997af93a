package envpolicy

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ParseAbsolute parses raw and requires a scheme and a host.
func ParseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}

// Normalize renders u in the form used for equality: lowercase scheme and
// host, NFC host and path, default port removed, trailing slash stripped,
// fragment dropped.
func Normalize(u *url.URL) string {
	return Origin(u) + normalizePath(u) + query(u)
}

// Origin renders scheme://host[:port] normalized.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := norm.NFC.String(strings.ToLower(u.Hostname()))
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host
}

// NormalizedPath is the path component as compared by the validator.
func NormalizedPath(u *url.URL) string {
	p := normalizePath(u)
	if p == "" {
		return "/"
	}
	return p
}

func normalizePath(u *url.URL) string {
	return strings.TrimRight(norm.NFC.String(u.EscapedPath()), "/")
}

func query(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}

// Derive joins a base URL (trailing slashes stripped) with a suffix.
func Derive(base, suffix string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + suffix
}

var placeholderMarkers = []string{"replace_me", "replace-me", "changeme", "change_me", "your-", "your_", "{{", "}}", "${"}

// placeholderWords only count as a whole host label or as a delimited word
// outside the host, so real hosts like todo-app.com pass.
var placeholderWords = []string{"todo", "xxx"}

var exampleDomains = []string{"example.com", "example.org", "example.net"}

// LooksPlaceholder reports whether value appears to be an unresolved
// template value.
func LooksPlaceholder(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	if strings.ContainsAny(lower, "<>") {
		return true
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	if u, err := url.Parse(lower); err == nil && u.Host != "" {
		host := u.Hostname()
		if containsWord(strings.Split(host, "."), placeholderWords) ||
			containsWord(words(u.Path+" "+u.RawQuery+" "+u.Fragment), placeholderWords) {
			return true
		}
		for _, d := range exampleDomains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return true
			}
		}
		return false
	}
	if containsWord(words(lower), placeholderWords) {
		return true
	}
	for _, d := range exampleDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsWord(tokens, wanted []string) bool {
	for _, t := range tokens {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}
