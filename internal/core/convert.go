package core

// convert.go turns raw feed tokens into typed values.
//
// Terminal feeds are exported from spreadsheets by hand, so the same column can
// arrive as "91.771,550" (pt-BR), "91771.55" or "91,771.55". These functions
// resolve that mess without ever inventing a value:
//   - Empty or unparseable input gives Valid=false, never zero
//   - Zero is only produced when the source literally says zero
//
// All Parse* functions return pgtype values so records can be handed to the
// store without another conversion step.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Delimiters recognised by DetectDelimiter.
const (
	Comma     = ','
	Semicolon = ';'
)

// localDateTimeLayouts are tried in order by ParseLocalDateTime.
var localDateTimeLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
}

var (
	// "USINA SANTA ADELIA (SP-012)" -> "USINA SANTA ADELIA"
	trailingSiteCode = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	// "COPERSUCAR - 03" / "COPERSUCAR 03" -> "COPERSUCAR"
	trailingSiteNumber = regexp.MustCompile(`(?:\s*[-/–]\s*|\s+)\d{1,3}$`)

	// Optional sign, then digits with '.' or ',' separators and nothing else.
	decimalText = regexp.MustCompile(`^[-+]?[0-9.,]*[0-9][0-9.,]*$`)
)

// ParseDelimitedLine splits line on delim outside of double-quoted spans.
// Quote characters toggle quoting and are dropped from the output. Unbalanced
// quotes never fail; the rest of the line is treated as quoted.
func ParseDelimitedLine(line string, delim rune) []string {
	tokens := make([]string, 0, 16)
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			tokens = append(tokens, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(tokens, cur.String())
}

// DetectDelimiter picks ',' or ';' by frequency in the header line.
// Ties, including a line with neither, resolve to comma.
func DetectDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return Semicolon
	}
	return Comma
}

// ParseDecimal parses a number written either pt-BR style ("1.234,56") or
// plain ("1234.56", "1,234.56").
//
// A comma is the decimal separator when it appears after the last dot or when
// there is no dot at all; dots are then grouping and are removed. Otherwise any
// commas are grouping and are removed.
func ParseDecimal(s string) pgtype.Float8 {
	s = strings.TrimSpace(s)
	if !decimalText.MatchString(s) {
		return pgtype.Float8{}
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	if lastComma >= 0 && (lastDot < 0 || lastComma > lastDot) {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ParseGroupedInteger parses an integer reading that may carry a stray
// grouping character of either kind. Every '.' and ',' is removed first, so
// "1.151" is 1151. Do not use it for fractional metrics.
func ParseGroupedInteger(s string) pgtype.Int8 {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Int8{}
	}
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	if s == "" {
		return pgtype.Int8{}
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: i, Valid: true}
}

// CleanLabel normalises a party name (client, supplier, destination):
// trims, strips wrapping quotes and drops one trailing site number such as
// " - 03" and then one site code such as "(SP-012)". "AGRO 7 - 12" keeps its 7.
func CleanLabel(s string) string {
	s = CleanCell(s)
	s = strings.TrimSpace(trailingSiteNumber.ReplaceAllString(s, ""))
	return strings.TrimSpace(trailingSiteCode.ReplaceAllString(s, ""))
}

// ParseLocalDateTime parses DD/MM/YYYY with optional HH:MM[:SS].
// Impossible calendar dates (31/02/2024) are rejected.
func ParseLocalDateTime(s string) pgtype.Timestamp {
	s = strings.Join(strings.Fields(CleanCell(s)), " ")
	if s == "" {
		return pgtype.Timestamp{}
	}
	for _, layout := range localDateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Timestamp{Time: t, Valid: true}
		}
	}
	return pgtype.Timestamp{}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// float8FromInt widens an integer reading so every metric is judged the same way.
func float8FromInt(i pgtype.Int8) pgtype.Float8 {
	if !i.Valid {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: float64(i.Int64), Valid: true}
}
