package anubad

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IndentWidth is the number of leading whitespace characters per block level.
const IndentWidth = 4

var indentUnit = strings.Repeat(" ", IndentWidth)

var (
	localizedHeader   = regexp.MustCompile(regexp.QuoteMeta(ifKeyword) + ` (.*) ` + regexp.QuoteMeta(conditionSuffix) + `:`)
	substitutedHeader = regexp.MustCompile(`^if (.*\S) +:$`)
	localizedPrint    = regexp.MustCompile(regexp.QuoteMeta(printKeyword) + `\((.*?)\)`)
)

// continuation clauses are written at the indentation of the block they close.
var continuationClauses = map[string]bool{
	"else:":    true,
	"elif:":    true,
	"except:":  true,
	"finally:": true,
}

// Translate runs the source normalizer, numeral normalizer, line rewriter and
// program assembler. It never fails; malformed lines surface in Validate.
func Translate(source string) *CanonicalProgram {
	text := ToCanonicalDigits(NormalizeSource(source))
	raw := strings.Split(text, "\n")

	program := &CanonicalProgram{
		Lines:   make([]string, len(raw)),
		Logical: make([]LogicalLine, len(raw)),
	}
	for i, line := range raw {
		program.Lines[i], program.Logical[i] = RewriteLine(line, i+1)
	}
	return program
}

// RewriteLine rewrites one physical line of digit-normalized source into its
// canonical form.
func RewriteLine(line string, number int) (string, LogicalLine) {
	info := LogicalLine{Number: number}

	stripped := strings.TrimSpace(line)
	if stripped == "" {
		info.IsBlank = true
		return "", info
	}
	if strings.HasPrefix(stripped, "#") {
		info.IsComment = true
		info.Content = line
		return line, info
	}

	info.RawIndent = utf8.RuneCountInString(line) - utf8.RuneCountInString(strings.TrimLeftFunc(line, unicode.IsSpace))
	info.IndentLevel = info.RawIndent / IndentWidth

	content := stripped
	if strings.HasPrefix(content, declareKeyword+" ") {
		content = strings.Replace(content, declareKeyword+" ", "", 1)
	}
	for _, kw := range keywordTable {
		content = strings.ReplaceAll(content, kw.Localized, kw.Canonical)
	}
	content = localizedHeader.ReplaceAllString(content, "if ${1}:")
	content = substitutedHeader.ReplaceAllString(content, "if ${1}:")
	content = localizedPrint.ReplaceAllString(content, "print(${1})")

	if continuationClauses[content] && info.IndentLevel > 0 {
		info.IndentLevel--
	}
	info.Content = content

	return strings.Repeat(indentUnit, info.IndentLevel) + content, info
}
