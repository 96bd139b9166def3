package core

import (
	"fmt"
	"strings"
)

// ValidationError represents an error during schema validation.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, e.Message)
}

// Validate checks the parsed tables and returns the first problem found.
// Two tables may not share a bare name, because generated files and data
// files are keyed by it.
func (db *Database) Validate() error {
	if db == nil {
		return &ValidationError{Entity: "database", Message: "database is nil"}
	}

	seen := make(map[string]string)
	for _, t := range db.tables {
		nameLower := strings.ToLower(t.TableName())
		if prev, ok := seen[nameLower]; ok {
			return &ValidationError{Entity: "database", Name: t.QualifiedName(), Message: fmt.Sprintf("table name clashes with %q", prev)}
		}
		seen[nameLower] = t.QualifiedName()

		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the Table definition is valid and returns an error if not.
func (t Table) Validate() error {
	if strings.TrimSpace(t.TableName()) == "" {
		return &ValidationError{Entity: "table", Name: "(empty)", Message: "table name is empty"}
	}
	if len(t.columns) == 0 {
		return &ValidationError{Entity: "table", Name: t.name, Message: "table has no columns"}
	}

	seenCols := make(map[string]bool)
	for _, c := range t.columns {
		if err := c.Validate(); err != nil {
			return err
		}
		nameLower := strings.ToLower(c.Name)
		if seenCols[nameLower] {
			return &ValidationError{Entity: "table", Name: t.name, Message: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		seenCols[nameLower] = true
	}
	return nil
}

// Validate checks if the Column definition is valid and returns an error if not.
func (c Column) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Entity: "column", Name: "(empty)", Message: "column name is empty"}
	}
	if strings.TrimSpace(c.Type) == "" {
		return &ValidationError{Entity: "column", Name: c.Name, Field: "Type", Message: "column type is empty"}
	}
	if c.Identity != "" && !c.HasIdentity() {
		return &ValidationError{Entity: "column", Name: c.Name, Field: "Identity", Message: "identity clause must start with IDENTITY"}
	}
	return nil
}
