package workbook

import (
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// builtinDateFormats are the built-in number format ids that render dates,
// including the East Asian variants.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// formatNoiseRegex matches quoted literals, locale and color modifiers
// ([$-409], [Red], [Color 10]) and escaped characters. Elapsed time brackets
// such as [h] are kept.
var formatNoiseRegex = regexp.MustCompile(`"[^"]*"|\[\$[^\]]*\]|(?i:\[(black|blue|cyan|green|magenta|red|white|yellow|color\s*\d+)\])|\\.`)

func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt != nil {
		return IsDateFormat(*style.CustomNumFmt)
	}
	return false
}

// IsDateFormat reports whether a custom number format code renders a date.
// Formats with a year or day token are dates; a bare "m" counts only when no
// hour or second token makes it read as minutes.
func IsDateFormat(code string) bool {
	code = strings.ToLower(formatNoiseRegex.ReplaceAllString(code, ""))
	if code == "" || code == "general" {
		return false
	}
	if strings.ContainsAny(code, "yd") {
		return true
	}
	return strings.Contains(code, "m") && !strings.ContainsAny(code, "hs")
}
