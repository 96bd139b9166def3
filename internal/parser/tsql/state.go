package tsql

import (
	"strings"

	"ddlport/internal/core"
)

type phase int

const (
	phaseSeeking       phase = iota // waiting for CREATE
	phaseCreate                     // saw CREATE, expecting TABLE
	phaseNaming                     // expecting the table name
	phaseNamed                      // "." extends the name, "(" opens the column list
	phaseColumns                    // expecting a column name or ")"
	phaseColumnType                 // expecting the column type
	phaseAfterType                  // "(" extends the type
	phaseTypeArgs                   // inside the type's parentheses
	phaseTypeDone                   // IDENTITY or trailing clause
	phaseAfterIdentity              // "(" extends the identity clause
	phaseIdentityArgs               // inside the identity's parentheses
	phaseTrailing                   // collecting the nullability clause
)

var phaseNames = map[phase]string{
	phaseSeeking:       "seeking",
	phaseCreate:        "create",
	phaseNaming:        "naming",
	phaseNamed:         "awaiting columns",
	phaseColumns:       "in columns",
	phaseColumnType:    "column type",
	phaseAfterType:     "after type",
	phaseTypeArgs:      "type arguments",
	phaseTypeDone:      "after type arguments",
	phaseAfterIdentity: "after identity",
	phaseIdentityArgs:  "identity arguments",
	phaseTrailing:      "trailing clause",
}

func (p phase) String() string { return phaseNames[p] }

// state is the parser position between two tokens. It only carries the data
// of the statement being built and is advanced by next, one token at a time.
type state struct {
	phase    phase
	name     string
	columns  []core.Column
	column   core.Column
	trailing string
	depth    int
}

// inStatement reports whether a CREATE TABLE statement has started and not
// been closed yet.
func (s state) inStatement() bool { return s.phase != phaseSeeking }

// next consumes one token. The returned table is non-nil exactly when the
// token closed a CREATE TABLE statement.
func (s state) next(t token) (state, *core.Table) {
	tok := t.text
	switch s.phase {
	case phaseSeeking:
		if strings.EqualFold(tok, "CREATE") {
			s.phase = phaseCreate
		}
		return s, nil

	case phaseCreate:
		if strings.EqualFold(tok, "TABLE") {
			return state{phase: phaseNaming}, nil
		}
		return state{}, nil

	case phaseNaming:
		s.name = tok
		s.phase = phaseNamed
		return s, nil

	case phaseNamed:
		switch {
		case tok == tokenParenOpen:
			s.columns = []core.Column{}
			s.phase = phaseColumns
		case strings.HasPrefix(tok, tokenDot) || strings.HasSuffix(s.name, tokenDot):
			s.name += tok
		}
		return s, nil

	case phaseColumns:
		switch tok {
		case tokenParenClose:
			return s.closeTable()
		case tokenComma:
			return s, nil
		}
		s.column = core.Column{Name: tok}
		s.phase = phaseColumnType
		return s, nil

	case phaseColumnType:
		if tok == tokenComma || tok == tokenParenClose {
			return s.trail(t)
		}
		s.column.Type = tok
		s.depth = parenDepth(tok)
		if s.depth > 0 {
			s.phase = phaseTypeArgs
		} else {
			s.phase = phaseAfterType
		}
		return s, nil

	case phaseAfterType:
		if strings.HasPrefix(tok, tokenParenOpen) {
			s.column.Type += tok
			s.depth = parenDepth(tok)
			s.phase = phaseTypeDone
			if s.depth > 0 {
				s.phase = phaseTypeArgs
			}
			return s, nil
		}
		return s.identityOrTrail(t)

	case phaseTypeArgs:
		s.column.Type += tok
		s.depth += parenDepth(tok)
		if s.depth <= 0 {
			s.depth = 0
			s.phase = phaseTypeDone
		}
		return s, nil

	case phaseTypeDone:
		return s.identityOrTrail(t)

	case phaseAfterIdentity:
		if strings.HasPrefix(tok, tokenParenOpen) {
			s.column.Identity += tok
			s.depth = parenDepth(tok)
			s.phase = phaseTrailing
			if s.depth > 0 {
				s.phase = phaseIdentityArgs
			}
			return s, nil
		}
		return s.trail(t)

	case phaseIdentityArgs:
		s.column.Identity += tok
		s.depth += parenDepth(tok)
		if s.depth <= 0 {
			s.depth = 0
			s.phase = phaseTrailing
		}
		return s, nil

	default:
		return s.trail(t)
	}
}

func (s state) identityOrTrail(t token) (state, *core.Table) {
	if !isIdentity(t.text) {
		return s.trail(t)
	}
	s.column.Identity = t.text
	s.depth = parenDepth(t.text)
	s.phase = phaseAfterIdentity
	if s.depth > 0 {
		s.phase = phaseIdentityArgs
	}
	return s, nil
}

// trail collects the nullability clause. A comma or closing parenthesis
// outside any nested parentheses ends the column. Tokens glued in the source
// stay glued, so the clause reads as it was written.
func (s state) trail(t token) (state, *core.Table) {
	if s.depth == 0 {
		switch t.text {
		case tokenComma:
			return s.endColumn(), nil
		case tokenParenClose:
			return s.endColumn().closeTable()
		}
	}
	if s.trailing != "" && !t.glued {
		s.trailing += " "
	}
	s.trailing += t.text
	s.depth += parenDepth(t.text)
	if s.depth < 0 {
		s.depth = 0
	}
	s.phase = phaseTrailing
	return s, nil
}

func (s state) endColumn() state {
	s.column.Nullable = s.trailing
	s.columns = append(s.columns, s.column)
	s.column = core.Column{}
	s.trailing = ""
	s.depth = 0
	s.phase = phaseColumns
	return s
}

func (s state) closeTable() (state, *core.Table) {
	table := core.NewTable(s.name, s.columns)
	return state{}, &table
}

func isIdentity(tok string) bool {
	return (core.Column{Identity: tok}).HasIdentity()
}

func parenDepth(tok string) int {
	return strings.Count(tok, tokenParenOpen) - strings.Count(tok, tokenParenClose)
}
