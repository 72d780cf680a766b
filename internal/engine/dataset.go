package engine

import (
	"encoding/json"
	"fmt"
)

// Dataset is the decoded input form at the boundary: one row table per
// entity name.
type Dataset map[string][]Bindings

// RowFromFields ingests one raw record into a row binding map. Numeric
// fields (JSON numbers arrive as float64, programmatic callers may pass
// ints or bools) are kept; everything else is dropped silently per the
// boundary contract - a non-numeric field is not an error.
func RowFromFields(fields map[string]any) Bindings {
	row := make(Bindings, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case float64:
			row[k] = val
		case float32:
			row[k] = float64(val)
		case int:
			row[k] = float64(val)
		case int64:
			row[k] = float64(val)
		case json.Number:
			if f, err := val.Float64(); err == nil {
				row[k] = f
			}
		case bool:
			row[k] = boolToFloat(val)
		}
	}
	return row
}

// DecodeDataset decodes a JSON dataset of the form
//
//	{"person": [{"age": 17}, {"age": 18}], "household": [...]}
//
// Non-numeric fields within a row are dropped. A record that does not
// decode as an object at all is a data-shape contract violation and
// surfaces as an error rather than being absorbed.
func DecodeDataset(data []byte) (Dataset, error) {
	var raw map[string][]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	ds := make(Dataset, len(raw))
	for entity, records := range raw {
		rows := make([]Bindings, len(records))
		for i, rec := range records {
			rows[i] = RowFromFields(rec)
		}
		ds[entity] = rows
	}
	return ds, nil
}

// DecodeRows decodes a JSON array of flat records for a single entity.
func DecodeRows(data []byte) ([]Bindings, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	rows := make([]Bindings, len(raw))
	for i, rec := range raw {
		rows[i] = RowFromFields(rec)
	}
	return rows, nil
}
