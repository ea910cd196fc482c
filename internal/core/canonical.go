package core

// canonical.go turns noisy, human-typed labels into stable keys.
//
// Equipment labels arrive as "Tracto-Mula 012", "tractomula_012 ", "TM012" and
// so on. CanonicalizeEquipment reduces them to the single alphanumeric token
// most likely to identify the vehicle. NormalizeHeader applies the same accent
// folding to column headers so role patterns can be plain ASCII.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	separatorRegex  = regexp.MustCompile(`[_\-]+`)
	tokenRegex      = regexp.MustCompile(`[A-Z0-9]+`)
	headerJunkRegex = regexp.MustCompile(`[^a-z0-9_]`)
)

// minCoreTokenLen is the shortest token trusted to identify equipment alone.
const minCoreTokenLen = 3

// StripAccents removes combining marks after NFD decomposition ("Tractómula"
// becomes "Tractomula"). Invalid input is returned unchanged.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader converts a spreadsheet header to its lookup form:
// accents stripped, lowercased, whitespace runs to "_" and any other
// character outside [a-z0-9_] removed. "Peso Neto (Kg)" becomes "peso_neto_kg".
func NormalizeHeader(h string) string {
	s := strings.Join(strings.Fields(strings.ToLower(StripAccents(h))), "_")
	return headerJunkRegex.ReplaceAllString(s, "")
}

// CanonicalizeEquipment maps a raw equipment label to its canonical key.
//
// The label is accent-folded, uppercased and split into alphanumeric tokens.
// The longest token (first on ties) is the key when it has at least three
// characters; otherwise all tokens are concatenated. Labels without tokens
// collapse to their text with spaces removed, and missing values to "".
func CanonicalizeEquipment(raw any) string {
	if raw == nil {
		return ""
	}
	s := StripAccents(strings.ToUpper(StripAccents(CellText(raw))))
	// strings.Fields splits on every Unicode space, including NBSP and \v,
	// which regexp's \s does not match.
	words := strings.Fields(separatorRegex.ReplaceAllString(s, " "))

	tokens := tokenRegex.FindAllString(strings.Join(words, " "), -1)
	if len(tokens) == 0 {
		return strings.Join(words, "")
	}

	longest := tokens[0]
	for _, tok := range tokens[1:] {
		if len(tok) > len(longest) {
			longest = tok
		}
	}
	if len(longest) >= minCoreTokenLen {
		return longest
	}
	return strings.Join(tokens, "")
}

// CellText coerces an untyped cell to text. Missing cells become "".
// Integral floats print without a fractional part so 12.0 reads as "12".
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format("2006-01-02")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
