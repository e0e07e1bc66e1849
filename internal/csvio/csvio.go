// Package csvio serializes the purchase-record collection to and from the
// fixed five-column CSV exchange format (date, price, weight, block, shop).
//
// The format is deliberately not stdlib encoding/csv: exports quote only the
// shop column (doubling embedded quotes), and imports must tolerate ragged
// rows, map columns by header name in any order, and coerce bad numbers to
// zero instead of rejecting the row. The line scanner is a small explicit
// state machine (quote toggle, field accumulate, field boundary).
package csvio

import (
	"errors"
	"strconv"
	"strings"

	"goldwatch/internal/models"
)

// Header is the fixed export column order.
var Header = []string{"date", "price", "weight", "block", "shop"}

// Export serializes records into the exchange format. Numeric fields use the
// shortest exact decimal form; only shop is quoted.
func Export(records []models.PurchaseRecord) string {
	var b strings.Builder
	b.WriteString(strings.Join(Header, ","))
	for _, r := range records {
		b.WriteByte('\n')
		b.WriteString(r.Date)
		b.WriteByte(',')
		b.WriteString(formatNumber(r.Price))
		b.WriteByte(',')
		b.WriteString(formatNumber(r.Weight))
		b.WriteByte(',')
		b.WriteString(formatNumber(r.Block))
		b.WriteByte(',')
		b.WriteString(quoteField(r.Shop))
	}
	return b.String()
}

// Import parses CSV content into records. Columns are located by header name,
// so column order is irrelevant; missing columns default to empty string or
// zero, and malformed rows are kept rather than rejected. Records come back
// without IDs; the store assigns them on replacement.
func Import(data []byte) ([]models.PurchaseRecord, error) {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, errors.New("csv content is empty")
	}

	index := make(map[string]int)
	for i, name := range scanLine(lines[0]) {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := index["date"]; !ok {
		return nil, errors.New("csv header has no date column")
	}

	records := make([]models.PurchaseRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := scanLine(line)
		cell := func(name string) string {
			if i, ok := index[name]; ok && i < len(cells) {
				return cells[i]
			}
			return ""
		}
		records = append(records, models.PurchaseRecord{
			Date:   cell("date"),
			Price:  parseNumber(cell("price")),
			Weight: parseNumber(cell("weight")),
			Block:  parseNumber(cell("block")),
			Shop:   cell("shop"),
		})
	}
	return records, nil
}

// scanLine splits one CSV line into fields. Inside a quoted field a comma is
// literal and a doubled quote is an escaped literal quote.
func scanLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			cur.WriteRune('"')
			i++
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// parseNumber coerces a cell to a float, treating anything unparsable as 0.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
