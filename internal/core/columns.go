package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a logical column name, independent of how a feed spells its header.
type Field string

// Logical fields shared by the unit and vessel feeds.
const (
	FieldID              Field = "id"
	FieldLicensePlate    Field = "licensePlate"
	FieldVessel          Field = "vessel"
	FieldInvoice         Field = "invoice"
	FieldProcess         Field = "process"
	FieldClient          Field = "client"
	FieldSupplier        Field = "supplier"
	FieldDestination     Field = "destination"
	FieldWeighedAt       Field = "weighedAt"
	FieldGrossWeight     Field = "grossWeight"
	FieldAutorizacao     Field = "autorizacao"
	FieldDataAutorizacao Field = "dataAutorizacao"
	FieldDoublecheckURL  Field = "doublecheckUrl"
	FieldBola7URL        Field = "bola7Url"
)

// Per-metric field suffixes, e.g. "corAnterior".
const (
	suffixPrevious = "Anterior"
	suffixDate     = "Data"
	suffixNIRDate  = "DataNir"
	suffixAnalyst  = "Analista"
)

// CurrentField is the field holding the current reading of m ("cor").
func CurrentField(m Metric) Field { return Field(m) }

// PreviousField is the field holding the pre-recheck reading ("corAnterior").
func PreviousField(m Metric) Field { return Field(string(m) + suffixPrevious) }

// DateField is the field holding the current analysis date ("corData").
func DateField(m Metric) Field { return Field(string(m) + suffixDate) }

// NIRDateField is the field holding the NIR analysis date ("corDataNir").
func NIRDateField(m Metric) Field { return Field(string(m) + suffixNIRDate) }

// AnalystField is the field holding the analyst id ("corAnalista").
func AnalystField(m Metric) Field { return Field(string(m) + suffixAnalyst) }

// ColumnMap maps logical fields to zero-based column positions.
type ColumnMap map[Field]int

// Has reports whether the header carried f.
func (c ColumnMap) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

// Cell returns the cleaned cell for f, or "" when the field is not in the
// header or the row is too short.
func (c ColumnMap) Cell(row []string, f Field) string {
	pos, ok := c[f]
	if !ok || pos < 0 || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// AliasTable maps normalised header spellings to logical fields.
type AliasTable map[string]Field

// BuildColumnMap resolves header tokens through aliases. Unknown headers are
// ignored; when two headers resolve to the same field the first one wins.
func BuildColumnMap(header []string, aliases AliasTable) ColumnMap {
	cm := make(ColumnMap, len(header))
	for i, h := range header {
		f, ok := aliases[NormalizeHeader(h)]
		if !ok || cm.Has(f) {
			continue
		}
		cm[f] = i
	}
	return cm
}

// NormalizeHeader lowercases, folds accents, drops punctuation and collapses
// whitespace to "_". "Peso Líquido (t)" becomes "peso_liquido_t"; callers
// register aliases in this normalised form.
func NormalizeHeader(h string) string {
	h = foldAccents(strings.ToLower(CleanCell(h)))
	h = headerPunct.Replace(h)
	return strings.Join(strings.Fields(h), "_")
}

var headerPunct = strings.NewReplacer(
	"-", " ", ".", " ", "/", " ",
	"(", " ", ")", " ", "[", " ", "]", " ",
)

// foldAccents strips combining marks: "umidade média" -> "umidade media".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// MetricAliases registers the spellings of every per-metric column for m.
// names are the normalised spellings of the metric itself ("umi", "um").
func MetricAliases(table AliasTable, m Metric, names ...string) {
	suffixes := []struct {
		field    Field
		spelling []string
	}{
		{CurrentField(m), []string{""}},
		{PreviousField(m), []string{"anterior", "_anterior", "_ant"}},
		{DateField(m), []string{"data", "_data"}},
		{NIRDateField(m), []string{"datanir", "_data_nir", "data_nir"}},
		{AnalystField(m), []string{"analista", "_analista"}},
	}
	for _, name := range names {
		for _, s := range suffixes {
			for _, sp := range s.spelling {
				table[name+sp] = s.field
			}
		}
	}
}

// Merge copies aliases from other into t, keeping existing entries.
func (t AliasTable) Merge(other AliasTable) AliasTable {
	for k, v := range other {
		if _, ok := t[k]; !ok {
			t[k] = v
		}
	}
	return t
}
