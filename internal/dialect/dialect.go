// Package dialect provides a unified interface for the SQL dialects a parsed
// dump can be emitted in. Every dialect renders the same core.Table model;
// they differ in type spelling, identifier quoting and statement terminators.
package dialect

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"ddlport/internal/core"
)

type Type string

const (
	// TSQL re-emits tables in the dump's own dialect.
	TSQL Type = "tsql"
	// Portable normalizes vendor types and literals toward a subset most
	// databases accept.
	Portable Type = "portable"
)

// Generator renders a parsed table as SQL.
type Generator interface {
	GenerateCreateTable(table core.Table) string
	GenerateInsert(table core.Table, bind BindStyle) string
	NormalizeSQL(sql string) string
}

// Parser interface is used to parse SQL text into a database schema.
type Parser interface {
	Parse(sql string) (*core.Database, error)
}

// Dialect interface creates a way to interact with a specific SQL dialect.
type Dialect interface {
	Name() Type
	Generator() Generator
	Parser() Parser
}

var (
	registry = map[Type]func() Dialect{}
	mu       sync.RWMutex
)

// RegisterDialect creates a new registry entry for the specified dialect.
func RegisterDialect(d Type, ctor func() Dialect) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = ctor
}

// GetDialect returns the dialect for the specified type from the registry.
// Unknown types fall back to the portable dialect when it is registered.
func GetDialect(d Type) Dialect {
	mu.RLock()
	defer mu.RUnlock()
	if ctor, ok := registry[d]; ok {
		return ctor()
	}
	if ctor, ok := registry[Portable]; ok {
		return ctor()
	}
	return nil
}

// Registered returns the registered dialect types in sorted order.
func Registered() []Type {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// ParseType validates a user supplied dialect name against the registry.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if t == "" {
		return Portable, nil
	}
	mu.RLock()
	_, ok := registry[t]
	mu.RUnlock()
	if !ok {
		return "", &UnsupportedDialectError{Name: name, Supported: Registered()}
	}
	return t, nil
}

// UnsupportedDialectError is returned by ParseType for unknown dialect names.
type UnsupportedDialectError struct {
	Name      string
	Supported []Type
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("unsupported dialect %q; supported: %v", e.Name, e.Supported)
}
