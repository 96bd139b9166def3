package apply

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations
)

// StatementAnalysis contains the results of analyzing a SQL statement.
type StatementAnalysis struct {
	StatementType     string
	Table             string
	Parseable         bool
	ParseError        string
	IsTransactionSafe bool
	TxUnsafeReason    string
	Notes             []string
}

// StatementAnalyzer uses TiDB's AST parser to check generated statements
// before they reach a database.
type StatementAnalyzer struct {
	parser *parser.Parser
}

// NewStatementAnalyzer creates a new AST-based statement analyzer.
func NewStatementAnalyzer() *StatementAnalyzer {
	return &StatementAnalyzer{
		parser: parser.New(),
	}
}

// AnalyzeStatement parses a single SQL statement and returns analysis results.
func (a *StatementAnalyzer) AnalyzeStatement(sql string) *StatementAnalysis {
	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil {
		analysis := &StatementAnalysis{
			StatementType:     "UNPARSEABLE",
			ParseError:        firstLine(err.Error()),
			IsTransactionSafe: true,
		}
		a.analyzeOtherStatement(analysis, sql)
		return analysis
	}

	if len(stmtNodes) == 0 {
		return &StatementAnalysis{Parseable: true, IsTransactionSafe: true}
	}

	return a.analyzeNode(stmtNodes[0], sql)
}

// AnalyzeStatements analyzes multiple SQL statements and returns a PreflightResult.
func (a *StatementAnalyzer) AnalyzeStatements(statements []string) *PreflightResult {
	result := &PreflightResult{
		IsTransactional: true,
	}

	for _, stmt := range statements {
		analysis := a.AnalyzeStatement(stmt)
		a.addParseWarning(result, analysis, stmt)
		a.addNoteWarnings(result, analysis, stmt)
		a.addTransactionSafety(result, analysis, stmt)
	}

	return result
}

func (a *StatementAnalyzer) addParseWarning(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if analysis.Parseable {
		return
	}
	result.Warnings = append(result.Warnings, Warning{
		Level:   WarnCaution,
		Message: fmt.Sprintf("Statement may not be portable: %s", analysis.ParseError),
		SQL:     stmt,
	})
}

func (a *StatementAnalyzer) addNoteWarnings(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	for _, note := range analysis.Notes {
		result.Warnings = append(result.Warnings, Warning{
			Level:   WarnCaution,
			Message: note,
			SQL:     stmt,
		})
	}
}

func (a *StatementAnalyzer) addTransactionSafety(result *PreflightResult, analysis *StatementAnalysis, stmt string) {
	if analysis.IsTransactionSafe {
		return
	}
	result.IsTransactional = false
	reason := analysis.TxUnsafeReason
	if reason == "" {
		reason = "DDL statement causes implicit commit"
	}
	result.NonTxReasons = append(result.NonTxReasons, fmt.Sprintf("%s: %s", reason, truncateSQL(stmt)))
}

func (a *StatementAnalyzer) analyzeNode(node ast.StmtNode, originalSQL string) *StatementAnalysis {
	analysis := &StatementAnalysis{
		Parseable:         true,
		IsTransactionSafe: true,
	}

	switch stmt := node.(type) {
	case *ast.CreateTableStmt:
		a.analyzeCreateTable(stmt, analysis)
	default:
		a.analyzeOtherStatement(analysis, originalSQL)
	}

	return analysis
}

func (a *StatementAnalyzer) analyzeCreateTable(stmt *ast.CreateTableStmt, analysis *StatementAnalysis) {
	analysis.StatementType = "CREATE TABLE"
	analysis.IsTransactionSafe = false
	analysis.TxUnsafeReason = "CREATE TABLE causes an implicit commit in MySQL"
	if stmt.Table != nil {
		analysis.Table = stmt.Table.Name.O
	}

	if len(stmt.Cols) == 0 {
		analysis.Notes = append(analysis.Notes, fmt.Sprintf("Table %s has no columns", analysis.Table))
		return
	}
	if !hasPrimaryKey(stmt) {
		analysis.Notes = append(analysis.Notes, fmt.Sprintf("Table %s has no primary key; loads cannot be deduplicated", analysis.Table))
	}
}

func hasPrimaryKey(stmt *ast.CreateTableStmt) bool {
	for _, col := range stmt.Cols {
		for _, opt := range col.Options {
			if opt.Tp == ast.ColumnOptionPrimaryKey {
				return true
			}
		}
	}
	for _, c := range stmt.Constraints {
		if c.Tp == ast.ConstraintPrimaryKey {
			return true
		}
	}
	return false
}

// analyzeOtherStatement covers statements TiDB rejected or does not model.
// Generated CREATE statements still commit implicitly on MySQL.
func (a *StatementAnalyzer) analyzeOtherStatement(analysis *StatementAnalysis, originalSQL string) {
	if analysis.StatementType == "" {
		analysis.StatementType = "OTHER"
	}
	upper := strings.ToUpper(strings.TrimSpace(originalSQL))
	if strings.HasPrefix(upper, "CREATE ") {
		analysis.IsTransactionSafe = false
		analysis.TxUnsafeReason = "DDL statement causes implicit commit"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
