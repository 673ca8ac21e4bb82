package anubad

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Bangla digit glyphs occupy a contiguous block, U+09E6 (০) through U+09EF (৯).
const (
	localizedZero rune = '০'
	localizedNine rune = '৯'
)

// ToCanonicalDigits maps every Bangla digit glyph to its ASCII counterpart.
// All other runes pass through unchanged.
func ToCanonicalDigits(text string) string {
	if !strings.ContainsFunc(text, isLocalizedDigit) {
		return text
	}
	return strings.Map(func(r rune) rune {
		if isLocalizedDigit(r) {
			return '0' + (r - localizedZero)
		}
		return r
	}, text)
}

// ToLocalizedDigits is the inverse of ToCanonicalDigits.
func ToLocalizedDigits(text string) string {
	if !strings.ContainsFunc(text, isCanonicalDigit) {
		return text
	}
	return strings.Map(func(r rune) rune {
		if isCanonicalDigit(r) {
			return localizedZero + (r - '0')
		}
		return r
	}, text)
}

func isLocalizedDigit(r rune) bool { return r >= localizedZero && r <= localizedNine }

func isCanonicalDigit(r rune) bool { return r >= '0' && r <= '9' }

// NormalizeSource puts program text into Unicode NFC so that the two
// encodings of letters such as য় compare equal to the keyword table.
// String literals are copied byte for byte; a literal runs from its opening
// quote to the matching unescaped quote or the end of the line.
func NormalizeSource(text string) string {
	if norm.NFC.IsNormalString(text) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	start := 0
	for i := 0; i < len(text); i++ {
		quote := text[i]
		if quote != '"' && quote != '\'' {
			continue
		}
		b.WriteString(norm.NFC.String(text[start:i]))
		end := literalEnd(text, i)
		b.WriteString(text[i:end])
		start = end
		i = end - 1
	}
	b.WriteString(norm.NFC.String(text[start:]))
	return b.String()
}

// literalEnd returns the offset just past the string literal opening at i
func literalEnd(text string, i int) int {
	quote := text[i]
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			if j+1 < len(text) && text[j+1] != '\n' {
				j++
			}
		case quote:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(text)
}
