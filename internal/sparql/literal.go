package sparql

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cayleygraph/quad"

	"github.com/roach88/semquery/internal/term"
)

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// quoteString renders s as a double-quoted SPARQL string literal.
func quoteString(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

// fullTextExpr renders text as a bif:contains argument: every whitespace
// separated word is single-quoted and the words are joined with AND.
func fullTextExpr(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return quoteString("''")
	}
	for i, w := range words {
		words[i] = "'" + strings.ReplaceAll(w, "'", `\'`) + "'"
	}
	return quoteString(strings.Join(words, " AND "))
}

// iriRef renders uri as a SPARQL IRI reference. It fails for an empty uri
// and for characters an IRIREF cannot hold.
func iriRef(uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	for _, r := range uri {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune("<>\"{}|^`\\", r) {
			return "", false
		}
	}
	return "<" + uri + ">", true
}

// validLang reports whether tag is a well-formed language tag.
func validLang(tag string) bool {
	if tag == "" || tag[0] == '-' {
		return false
	}
	for _, r := range tag {
		if r != '-' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	return true
}

// formatValue renders a literal value in SPARQL syntax. ok is false when
// the value carries an IRI or language tag that cannot be written.
func formatValue(v quad.Value) (string, bool) {
	switch val := v.(type) {
	case quad.String:
		return quoteString(string(val)), true
	case quad.LangString:
		return quoteString(string(val.Value)) + "@" + val.Lang, validLang(val.Lang)
	case quad.Int:
		return strconv.FormatInt(int64(val), 10), true
	case quad.Bool:
		return strconv.FormatBool(bool(val)), true
	case quad.Float:
		return typed(term.StringOf(val), term.DatatypeDouble)
	case quad.Time:
		return typed(time.Time(val).UTC().Format(time.RFC3339Nano), term.DatatypeDateTime)
	case quad.TypedString:
		return typed(string(val.Value), string(val.Type))
	case quad.IRI:
		return iriRef(string(val))
	default:
		return quoteString(term.StringOf(v)), true
	}
}

func typed(lexical, datatype string) (string, bool) {
	ref, ok := iriRef(datatype)
	return quoteString(lexical) + "^^" + ref, ok
}
