package dump

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

const defaultDelimiter = "|"

// DefaultBinaryColumns hold hex encoded images in the AdventureWorks export.
var DefaultBinaryColumns = []string{"EmployeePhoto", "LargePhoto", "SalesTerritoryImage"}

// DefaultEmptyColumns are NOT NULL in the schema but exported empty.
var DefaultEmptyColumns = []string{"EnglishProductName", "SpanishProductName", "FrenchProductName"}

// Record is one data row keyed by column name. Empty fields are nil.
type Record map[string]any

// Values returns the record's values in columns order.
func (r Record) Values(columns []string) []any {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = r[c]
	}
	return values
}

// RecordError reports a row that could not be decoded.
type RecordError struct {
	Line   int
	Column string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ErrTooManyFields is wrapped by RecordError when a row has more fields than
// the table has columns.
var ErrTooManyFields = errors.New("more fields than columns")

// RecordOption configures a RecordReader.
type RecordOption func(*RecordReader)

// WithDelimiter overrides the field separator.
func WithDelimiter(delimiter string) RecordOption {
	return func(r *RecordReader) {
		if delimiter != "" {
			r.delimiter = delimiter
		}
	}
}

// WithBinaryColumns replaces the set of hex decoded columns.
func WithBinaryColumns(columns ...string) RecordOption {
	return func(r *RecordReader) {
		r.binary = toSet(columns)
	}
}

// WithEmptyColumns replaces the set of columns whose nulls become "".
func WithEmptyColumns(columns ...string) RecordOption {
	return func(r *RecordReader) {
		r.empty = toSet(columns)
	}
}

// RecordReader reads delimited rows, one per line, mapping fields onto
// columns positionally. Missing trailing fields are nil.
type RecordReader struct {
	scanner   *bufio.Scanner
	columns   []string
	delimiter string
	binary    map[string]struct{}
	empty     map[string]struct{}
	line      int
}

// NewRecordReader reads rows for columns from r, which must already be
// decoded (see NewReader).
func NewRecordReader(r io.Reader, columns []string, opts ...RecordOption) *RecordReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	rr := &RecordReader{
		scanner:   scanner,
		columns:   columns,
		delimiter: defaultDelimiter,
		binary:    toSet(DefaultBinaryColumns),
		empty:     toSet(DefaultEmptyColumns),
	}
	for _, opt := range opts {
		opt(rr)
	}
	return rr
}

// Columns returns the column names rows are mapped onto.
func (r *RecordReader) Columns() []string {
	return r.columns
}

// Next returns the next record, or io.EOF once the input is exhausted.
// Blank lines are skipped.
func (r *RecordReader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if r.line == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if line == "" {
			continue
		}
		return r.decode(line)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return nil, io.EOF
}

// All yields every remaining record. Iteration stops after the first error.
func (r *RecordReader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (r *RecordReader) decode(line string) (Record, error) {
	fields := strings.Split(line, r.delimiter)
	if len(fields) > len(r.columns) {
		return nil, &RecordError{Line: r.line, Err: fmt.Errorf("%w: %d > %d", ErrTooManyFields, len(fields), len(r.columns))}
	}

	rec := make(Record, len(r.columns))
	for i, column := range r.columns {
		var value any
		if i < len(fields) && fields[i] != "" {
			value = fields[i]
		}

		if _, ok := r.binary[column]; ok && value != nil {
			data, err := DecodeBinary(fields[i])
			if err != nil {
				return nil, &RecordError{Line: r.line, Column: column, Err: err}
			}
			value = data
		}
		if _, ok := r.empty[column]; ok && value == nil {
			value = ""
		}
		rec[column] = value
	}
	return rec, nil
}

// DecodeBinary turns a hex string, optionally prefixed with 0x, into bytes.
func DecodeBinary(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[:2] == "0x" || value[:2] == "0X") {
		value = value[2:]
	}
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid binary value: %w", err)
	}
	return data, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
