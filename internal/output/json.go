package output

import (
	"encoding/json"

	"ddlport/internal/core"
)

type jsonFormatter struct{}

type tablesSummary struct {
	Tables  int `json:"tables"`
	Columns int `json:"columns"`
}

type tablesPayload struct {
	Format  string        `json:"format"`
	Summary tablesSummary `json:"summary"`
	Tables  []core.Table  `json:"tables"`
}

func (jsonFormatter) FormatTables(tables []core.Table) (string, error) {
	payload := tablesPayload{
		Format: string(FormatJSON),
		Tables: tables,
		Summary: tablesSummary{
			Tables:  len(tables),
			Columns: countColumns(tables),
		},
	}
	if payload.Tables == nil {
		payload.Tables = []core.Table{}
	}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
