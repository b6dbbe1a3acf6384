package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/nextimage-env/internal/env"
)

const absentMarker = "(absent)"

func renderRecord(out io.Writer, record env.Record, format string) error {
	if format == "table" {
		renderCheckTable(out, record)
		return nil
	}
	return renderValue(out, record.Snapshot(), format)
}

func renderValue(out io.Writer, value any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func renderCheckTable(out io.Writer, record env.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Variable", "Status", "Value"})
	for _, k := range env.Keys() {
		value, ok := record.Get(k)
		if !ok {
			t.AppendRow(table.Row{k.String(), "missing", absentMarker})
			continue
		}
		t.AppendRow(table.Row{k.String(), "set", value})
	}
	t.Render()
}
