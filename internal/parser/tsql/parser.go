// Package tsql recovers CREATE TABLE definitions from Transact-SQL schema
// dumps. It is a permissive, non-validating parser: it understands
// bracket-quoted and double-quoted identifiers, schema-qualified names,
// parenthesized type arguments and inline IDENTITY clauses, and skips every
// other statement in the dump.
package tsql

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"ddlport/internal/core"
)

// maxLineSize bounds a single physical line read by ParseReader.
const maxLineSize = 16 * 1024 * 1024

const byteOrderMark = "\uFEFF"

// ErrMalformedStatement is matched by MalformedStatementError through errors.Is.
var ErrMalformedStatement = errors.New("malformed statement")

// MalformedStatementError reports a CREATE TABLE statement that was still
// open when the input ended. It is only returned in strict mode.
type MalformedStatementError struct {
	Table  string
	Line   int
	Reason string
}

func (e *MalformedStatementError) Error() string {
	name := e.Table
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("tsql: malformed CREATE TABLE %s starting at line %d: %s", name, e.Line, e.Reason)
}

func (e *MalformedStatementError) Is(target error) bool {
	return target == ErrMalformedStatement
}

// Parser reads T-SQL dumps. The zero value is a permissive parser.
type Parser struct {
	strict bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrict makes the parser fail on statements left unterminated at the end
// of input instead of silently dropping them.
func WithStrict(strict bool) Option {
	return func(p *Parser) {
		p.strict = strict
	}
}

// NewParser creates a new T-SQL dump parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a fully materialized dump.
func (p *Parser) Parse(sql string) (*core.Database, error) {
	return p.ParseLines(strings.Lines(sql))
}

// ParseReader parses a dump one line at a time.
func (p *Parser) ParseReader(r io.Reader) (*core.Database, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	s := &session{}
	for scanner.Scan() {
		s.feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tsql: read dump: %w", err)
	}
	return s.finish(p.strict)
}

// ParseLines parses an ordered sequence of lines. Tables are returned in the
// order their closing parenthesis appears.
func (p *Parser) ParseLines(lines iter.Seq[string]) (*core.Database, error) {
	s := &session{}
	for line := range lines {
		s.feed(line)
	}
	return s.finish(p.strict)
}

// session carries the statement state of one parse across lines, so a
// column clause may continue on the next physical line.
type session struct {
	state  state
	tables []core.Table
	line   int
	start  int
}

func (s *session) feed(line string) {
	s.line++
	if s.line == 1 {
		line = strings.TrimPrefix(line, byteOrderMark)
	}
	line = strings.TrimSpace(line)
	if !s.state.inStatement() && !hasCreatePrefix(line) {
		return
	}

	for _, tok := range lex(line) {
		wasOpen := s.state.inStatement()
		var table *core.Table
		s.state, table = s.state.next(tok)
		if !wasOpen && s.state.inStatement() {
			s.start = s.line
		}
		if table != nil {
			s.tables = append(s.tables, *table)
		}
	}
}

func (s *session) finish(strict bool) (*core.Database, error) {
	if strict && s.state.inStatement() {
		return nil, &MalformedStatementError{
			Table:  s.state.name,
			Line:   s.start,
			Reason: "input ended while " + s.state.phase.String(),
		}
	}
	return core.NewDatabase(s.tables), nil
}

func hasCreatePrefix(line string) bool {
	const keyword = "CREATE"
	return len(line) >= len(keyword) && strings.EqualFold(line[:len(keyword)], keyword)
}
