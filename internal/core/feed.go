package core

// feed.go drives a whole feed file through the Field Parser and Row Mapper.
//
// Parsing is a single linear pass. Rows never depend on each other, bad rows
// are recorded in FeedResult.Skipped, and a file with no data rows yields an
// empty result rather than an error. The only error returned is a read error
// from the underlying reader.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/encoding/charmap"
)

const utf8BOM = "\ufeff"

// integerMetrics are read with ParseGroupedInteger: a "1.151" color is 1151.
var integerMetrics = map[Metric]bool{Cor: true, Ri: true}

// ParseFeed reads a delimited feed and maps every data row with def.
func ParseFeed(r io.Reader, def FeedDefinition) (*FeedResult, error) {
	result := &FeedResult{
		Feed:    def.Key,
		Units:   []Unit{},
		Skipped: []SkippedRow{},
	}

	br := bufio.NewReader(r)
	var (
		delim  rune
		cm     ColumnMap
		lineNo int
	)

	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read feed %s: %w", def.Key, err)
		}
		if raw != "" {
			lineNo++
			line := decodeLine(raw, lineNo == 1)

			if strings.TrimSpace(line) != "" {
				if cm == nil {
					delim = DetectDelimiter(line)
					cm = BuildColumnMap(ParseDelimitedLine(line, delim), def.Aliases)
					result.Delimiter = string(delim)
					result.Columns = cm
				} else {
					result.TotalRows++
					row := ParseDelimitedLine(line, delim)
					u, mapErr := def.MapRow(row, cm, lineNo)
					if mapErr != nil {
						result.Skipped = append(result.Skipped, SkippedRow{
							Line:   lineNo,
							Reason: skipReason(mapErr),
							Data:   row,
						})
					} else {
						result.Units = append(result.Units, u)
					}
				}
			}
		}
		if err != nil {
			break
		}
	}

	return result, nil
}

// decodeLine strips line endings and the BOM, and decodes lines that are not
// valid UTF-8 as Windows-1252, the encoding spreadsheet exports fall back to.
func decodeLine(raw string, first bool) string {
	line := strings.TrimRight(raw, "\r\n")
	if first {
		line = strings.TrimPrefix(line, utf8BOM)
	}
	if utf8.ValidString(line) {
		return line
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(line)
	if err != nil {
		return strings.ToValidUTF8(line, "?")
	}
	return decoded
}

func skipReason(err error) string {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip.Reason
	}
	return err.Error()
}

// ReadMetricSlot reads the five per-metric columns of m from row.
// Columns absent from the header leave the matching slot fields absent.
func ReadMetricSlot(row []string, cm ColumnMap, m Metric) MetricSlot {
	return MetricSlot{
		Current:  readMetricValue(cm.Cell(row, CurrentField(m)), m),
		Previous: readMetricValue(cm.Cell(row, PreviousField(m)), m),
		Date:     ParseLocalDateTime(cm.Cell(row, DateField(m))),
		NIRDate:  ParseLocalDateTime(cm.Cell(row, NIRDateField(m))),
		Analyst:  cm.Cell(row, AnalystField(m)),
	}
}

// ReadMetrics reads every metric slot from row.
func ReadMetrics(row []string, cm ColumnMap) map[Metric]MetricSlot {
	out := make(map[Metric]MetricSlot, len(Metrics))
	for _, m := range Metrics {
		out[m] = ReadMetricSlot(row, cm, m)
	}
	return out
}

func readMetricValue(cell string, m Metric) pgtype.Float8 {
	if integerMetrics[m] {
		return float8FromInt(ParseGroupedInteger(cell))
	}
	return ParseDecimal(cell)
}
