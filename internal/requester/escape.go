package requester

import (
	"sort"
	"strings"
)

const upperhex = "0123456789ABCDEF"

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// queryAllowed is the host-allowed set without the bytes that delimit query
// items (& = + ;), so an encoded pair always parses back as a single item.
func queryAllowed(c byte) bool {
	if isAlnum(c) {
		return true
	}
	switch c {
	case '!', '$', '\'', '(', ')', '*', ',', '-', '.', ':', '[', ']', '_', '~':
		return true
	}
	return false
}

// formAllowed is alphanumerics plus "-._* "
func formAllowed(c byte) bool {
	if isAlnum(c) {
		return true
	}
	switch c {
	case '-', '.', '_', '*', ' ':
		return true
	}
	return false
}

func percentEncode(s string, allowed func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowed(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// QueryEscape percent-encodes a query item key or value
func QueryEscape(s string) string {
	return percentEncode(s, queryAllowed)
}

// FormEscape escapes a form value: everything outside alphanumerics and "-._* "
// is percent-encoded, then spaces become '+'.
func FormEscape(s string) string {
	return strings.ReplaceAll(percentEncode(s, formAllowed), " ", "+")
}

// FormEncode joins parameters as key=FormEscape(value) pairs separated by '&'.
// Keys are written as given. Pairs are sorted by key so bodies are stable.
func FormEncode(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+FormEscape(params[k]))
	}
	return strings.Join(pairs, "&")
}
