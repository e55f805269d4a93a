package statements

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// ParsedLine is one usable row of an imported bank statement.
type ParsedLine struct {
	Date      time.Time
	Amount    decimal.Decimal
	Reference string
	Label     string
}

// Expected columns: date, label, reference, amount. The first row is a
// header and is skipped; malformed rows are skipped too (bank exports
// routinely carry footer/total rows).

// Parse reads a bank statement, dispatching on the file extension.
func Parse(filename string, r io.Reader) ([]ParsedLine, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseCSV(r io.Reader) ([]ParsedLine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.Comma = sniffDelimiter(raw)

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var lines []ParsedLine
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if line, ok := parseRow(record); ok {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func parseXLSX(r io.Reader) ([]ParsedLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	var lines []ParsedLine
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if line, ok := parseRow(row); ok {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func parseRow(record []string) (ParsedLine, bool) {
	if len(record) < 4 {
		return ParsedLine{}, false
	}
	if strings.Join(record, "") == "" {
		return ParsedLine{}, false
	}

	date, err := parseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return ParsedLine{}, false
	}
	amount, err := parseAmount(record[3])
	if err != nil {
		return ParsedLine{}, false
	}

	return ParsedLine{
		Date:      date,
		Label:     strings.TrimSpace(record[1]),
		Reference: strings.TrimSpace(record[2]),
		Amount:    amount,
	}, true
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date: " + s)
}

// parseAmount tolerates French number formatting: thousands separated
// by spaces (incl. non-breaking) and a comma decimal separator.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

func sniffDelimiter(raw []byte) rune {
	sample := raw
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if i := bytes.IndexByte(sample, '\n'); i > 0 {
		sample = sample[:i]
	}
	switch {
	case bytes.ContainsRune(sample, ';'):
		return ';'
	case bytes.ContainsRune(sample, '\t'):
		return '\t'
	default:
		return ','
	}
}
