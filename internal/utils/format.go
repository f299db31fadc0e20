package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/iancoleman/orderedmap"
	"github.com/jedib0t/go-pretty/v6/table"
)

/**
 * Convert a struct into an ordered map keyed by its json field names
 * @param {interface{}} v - Struct (or pointer to struct) with json tags
 * @returns {*orderedmap.OrderedMap} Fields in declaration order
 */
func StructToOrderedMap(v interface{}) (*orderedmap.OrderedMap, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	om := orderedmap.New()
	if err := json.Unmarshal(data, om); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return om, nil
}

// PrintFormat prints records as a table on stdout. Columns follow the first record's keys.
func PrintFormat(records []*orderedmap.OrderedMap) {
	FprintFormat(os.Stdout, records)
}

func FprintFormat(w io.Writer, records []*orderedmap.OrderedMap) {
	if len(records) == 0 {
		return
	}
	keys := records[0].Keys()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(keys))
	for _, k := range keys {
		header = append(header, k)
	}
	t.AppendHeader(header)

	for _, rec := range records {
		row := make(table.Row, 0, len(keys))
		for _, k := range keys {
			v, _ := rec.Get(k)
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.Render()
}
