package dump

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"
)

// ExportFormat selects how Export writes records.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// ParseExportFormat validates a user supplied export format name.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case ExportCSV, ExportJSON:
		return f, nil
	case "":
		return ExportCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use csv or json)", name)
	}
}

// Export writes records as UTF-8 in the given format and returns how many
// were written. Values are coerced to strings; binary values are written as
// hex. CSV output starts with a header row; JSON output is one object per
// line with keys in column order and nulls preserved.
func Export(w io.Writer, format ExportFormat, columns []string, records iter.Seq2[Record, error]) (int, error) {
	switch format {
	case ExportJSON:
		return exportJSON(w, columns, records)
	default:
		return exportCSV(w, columns, records)
	}
}

func exportCSV(w io.Writer, columns []string, records iter.Seq2[Record, error]) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	count := 0
	row := make([]string, len(columns))
	for rec, err := range records {
		if err != nil {
			return count, err
		}
		for i, c := range columns {
			s, _ := coerceString(rec[c])
			row[i] = s
		}
		if err := cw.Write(row); err != nil {
			return count, fmt.Errorf("failed to write row: %w", err)
		}
		count++
	}
	cw.Flush()
	return count, cw.Error()
}

func exportJSON(w io.Writer, columns []string, records iter.Seq2[Record, error]) (int, error) {
	count := 0
	var buf bytes.Buffer
	for rec, err := range records {
		if err != nil {
			return count, err
		}
		buf.Reset()
		buf.WriteByte('{')
		for i, c := range columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(c)
			buf.Write(key)
			buf.WriteByte(':')

			var value any
			if s, ok := coerceString(rec[c]); ok {
				value = s
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return count, fmt.Errorf("failed to encode %s: %w", c, err)
			}
			buf.Write(encoded)
		}
		buf.WriteString("}\n")
		if _, err := w.Write(buf.Bytes()); err != nil {
			return count, fmt.Errorf("failed to write record: %w", err)
		}
		count++
	}
	return count, nil
}

// coerceString reports false for nil.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return hex.EncodeToString(t), true
	default:
		return fmt.Sprint(t), true
	}
}
