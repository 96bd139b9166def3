package portable

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule is one literal, case-sensitive substitution. A WordStart rule only
// matches where Old does not continue a word, so the national string prefix
// in N'abc' is stripped while the closing n' of 'Jun' is left alone.
type Rule struct {
	Old       string
	New       string
	WordStart bool
}

// Rules are applied in order. Later rules must not re-match text produced by
// earlier ones: nvarchar(max) becomes varchar(max) before the varchar(max)
// rule runs, and varbinary(max) is rewritten before it.
var Rules = []Rule{
	{Old: " bit", New: " int"},
	{Old: " BIT", New: " INT"},
	{Old: "datetime", New: "timestamp"},
	{Old: "DATETIME", New: "TIMESTAMP"},
	{Old: "nchar", New: "char"},
	{Old: "NCHAR", New: "CHAR"},
	{Old: "nvarchar", New: "varchar"},
	{Old: "NVARCHAR", New: "VARCHAR"},
	{Old: "money", New: "decimal(19, 4)"},
	{Old: "MONEY", New: "DECIMAL(19, 4)"},
	{Old: "varbinary(max)", New: "blob"},
	{Old: "VARBINARY(MAX)", New: "BLOB"},
	{Old: "varchar(max)", New: "varchar(4096)"},
	{Old: "VARCHAR(MAX)", New: "VARCHAR(4096)"},
	{Old: "Unknown ", New: `"Unknown" `},
	{Old: "n'", New: "'", WordStart: true},
	{Old: "N'", New: "'", WordStart: true},
}

// Normalize rewrites vendor types and literals in already emitted SQL using
// Rules, trims it and drops one trailing statement terminator.
func Normalize(sql string) string {
	return NormalizeWith(Rules, sql)
}

// NormalizeWith is Normalize over a caller supplied rule table.
func NormalizeWith(rules []Rule, sql string) string {
	for _, r := range rules {
		if r.WordStart {
			sql = replaceAtWordStart(sql, r.Old, r.New)
		} else {
			sql = strings.ReplaceAll(sql, r.Old, r.New)
		}
	}
	sql = strings.TrimSpace(sql)
	return strings.TrimSuffix(sql, ";")
}

// replaceAtWordStart replaces old wherever the rune before it in s is not
// part of a word.
func replaceAtWordStart(s, old, replacement string) string {
	if old == "" {
		return s
	}
	var sb strings.Builder
	last := utf8.RuneError
	for {
		i := strings.Index(s, old)
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		if i > 0 {
			last, _ = utf8.DecodeLastRuneInString(s[:i])
		}
		sb.WriteString(s[:i])
		if isWordRune(last) {
			sb.WriteString(old)
		} else {
			sb.WriteString(replacement)
		}
		last, _ = utf8.DecodeLastRuneInString(old)
		s = s[i+len(old):]
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
