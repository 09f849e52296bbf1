// Package ident normalizes free-form Pokémon names into lookup identifiers.
package ident

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ToID folds a display name into its identifier: compatibility-decomposed,
// ASCII letters and digits only, lower case. "Flabébé" and "flabebe" share
// the id "flabebe"; "King's Rock" becomes "kingsrock".
func ToID(s string) string {
	if !isASCII(s) {
		s = norm.NFKD.String(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// SplitDescriptor separates a trailing bracketed or parenthesized qualifier
// from a label: "Calyrex [Shadow Rider]" yields ("Calyrex", "Shadow Rider", true).
// Labels without a qualifier are returned trimmed with ok=false.
func SplitDescriptor(label string) (base, descriptor string, ok bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", "", false
	}
	closer := label[len(label)-1]
	var opener byte
	switch closer {
	case ']':
		opener = '['
	case ')':
		opener = '('
	default:
		return label, "", false
	}
	i := strings.LastIndexByte(label, opener)
	if i <= 0 {
		return label, "", false
	}
	base = strings.TrimSpace(label[:i])
	descriptor = strings.TrimSpace(label[i+1 : len(label)-1])
	if base == "" {
		return label, "", false
	}
	return base, descriptor, true
}

// Words splits a descriptor into lower-cased words on spaces, hyphens and
// slashes.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '/' || r == ','
	})
}

// Title upper-cases the first letter of w.
func Title(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
