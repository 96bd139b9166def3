package toml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddlport/internal/core"
)

const accountSchema = `
[[tables]]
name = "dbo.DimAccount"

  [[tables.columns]]
  name = "AccountKey"
  type = "int"
  identity = "IDENTITY(1,1)"
  nullable = "NOT NULL"

  [[tables.columns]]
  name = "AccountDescription"
  type = "nvarchar(50)"
  nullable = "NULL"

[[tables]]
name = "Empty"
`

func TestParse(t *testing.T) {
	db, err := NewParser().Parse(strings.NewReader(accountSchema))
	require.NoError(t, err)
	require.Equal(t, 2, db.Len())

	account := db.Tables()[0]
	assert.Equal(t, "dbo.DimAccount", account.QualifiedName())
	assert.Equal(t, []core.Column{
		{Name: "AccountKey", Type: "int", Identity: "IDENTITY(1,1)", Nullable: "NOT NULL"},
		{Name: "AccountDescription", Type: "nvarchar(50)", Nullable: "NULL"},
	}, account.Columns())

	assert.Empty(t, db.Tables()[1].Columns())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.toml")
	require.NoError(t, os.WriteFile(path, []byte(accountSchema), 0o600))

	db, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"DimAccount", "Empty"}, db.TableNames())

	_, err = NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{
			name:    "malformed",
			input:   "[[tables]\n",
			message: "toml: decode error",
		},
		{
			name:    "unknown key",
			input:   "[[tables]]\nname = \"t\"\ncomment = \"x\"\n",
			message: "unknown keys",
		},
		{
			name:    "missing table name",
			input:   "[[tables]]\n",
			message: "name is required",
		},
		{
			name:    "duplicate table",
			input:   "[[tables]]\nname = \"dbo.T\"\n[[tables]]\nname = \"sales.t\"\n",
			message: `duplicate table name "t"`,
		},
		{
			name:    "missing column type",
			input:   "[[tables]]\nname = \"t\"\n[[tables.columns]]\nname = \"c\"\n",
			message: `column "c": type is required`,
		},
		{
			name:    "duplicate column",
			input:   "[[tables]]\nname = \"t\"\n[[tables.columns]]\nname = \"c\"\ntype = \"int\"\n[[tables.columns]]\nname = \"C\"\ntype = \"int\"\n",
			message: `duplicate column name "C"`,
		},
		{
			name:    "bad identity",
			input:   "[[tables]]\nname = \"t\"\n[[tables.columns]]\nname = \"c\"\ntype = \"int\"\nidentity = \"(1,1)\"\n",
			message: "identity must start with IDENTITY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
