package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryFormatterTables(t *testing.T) {
	out, err := summaryFormatter{}.FormatTables(sampleTables())
	require.NoError(t, err)

	expected := "Schema Summary\n" +
		"==============\n\n" +
		"Tables:   2\n" +
		"Columns:  3\n" +
		"Identity: 1\n" +
		"\nDetails:\n" +
		"  dbo.DimAccount (2 cols, identity AccountKey)\n" +
		"  dbo.FactFinance (1 cols)\n"
	assert.Equal(t, expected, out)
}

func TestSummaryFormatterEmpty(t *testing.T) {
	out, err := summaryFormatter{}.FormatTables(nil)
	require.NoError(t, err)
	assert.Equal(t, "No tables found.\n", out)
}
