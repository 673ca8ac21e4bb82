package anubad

import (
	"testing"
	"unicode/utf8"
)

func TestToCanonicalDigits(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"০১২৩৪৫৬৭৮৯", "0123456789"},
		{"ক = ১০", "ক = 10"},
		{"no digits here", "no digits here"},
		{"mixed ৪2", "mixed 42"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToCanonicalDigits(tt.in); got != tt.want {
			t.Errorf("ToCanonicalDigits(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestToLocalizedDigits(t *testing.T) {
	if got := ToLocalizedDigits("result: 42"); got != "result: ৪২" {
		t.Errorf("Expected %q, got %q", "result: ৪২", got)
	}
}

func TestDigitMappingProperties(t *testing.T) {
	inputs := []string{"১২৩ abc ৯", "x = 0.5", "বাংলা", "\t৭\n"}
	for _, in := range inputs {
		once := ToCanonicalDigits(in)
		if twice := ToCanonicalDigits(once); twice != once {
			t.Errorf("ToCanonicalDigits not idempotent on %q", in)
		}
		if utf8.RuneCountInString(once) != utf8.RuneCountInString(in) {
			t.Errorf("ToCanonicalDigits changed rune count of %q", in)
		}
		if back := ToCanonicalDigits(ToLocalizedDigits(once)); back != once {
			t.Errorf("Round trip of %q gave %q", once, back)
		}
	}
}

func TestNormalizeSourceComposesYa(t *testing.T) {
	precomposed := "\u09b9\u09df"
	decomposed := "\u09b9\u09af\u09bc"
	if NormalizeSource(precomposed) != NormalizeSource(decomposed) {
		t.Error("Expected both spellings of হয় to normalize identically")
	}
}

func TestNormalizeSourceKeepsLiterals(t *testing.T) {
	// U+09DC and U+09DF decompose under NFC
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"code outside literals", "\u09b9\u09df", "\u09b9\u09af\u09bc"},
		{"double quoted", "x = \"\u09dc\" \u09dc", "x = \"\u09dc\" \u09a1\u09bc"},
		{"single quoted", "'\u09dc' \u09dc", "'\u09dc' \u09a1\u09bc"},
		{"escaped quote", "\"a\\\"\u09dc\" \u09dc", "\"a\\\"\u09dc\" \u09a1\u09bc"},
		{"unterminated ends at newline", "\"\u09dc\n\u09dc", "\"\u09dc\n\u09a1\u09bc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSource(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
