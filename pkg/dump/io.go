package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON encodes records as an indented JSON array.
// The output can be read back with [ReadJSON].
func WriteJSON(records []Record, w io.Writer) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes records to a JSON file at path.
func ExportJSON(records []Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(records, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON decodes a JSON array of records:
//
//	[
//	  {"nodeId": "task1", "schemaId": "task", "value": {"name": "x"}, "refs": {"subTasks": "array1"}},
//	  {"nodeId": "array1", "schemaId": "task/properties/subTasks", "value": [null], "refs": {"0": "task1"}}
//	]
//
// Numbers decode as float64. ReadJSON does not validate records against a
// registry; [Load] does. It does not close r.
func ReadJSON(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i, rec := range records {
		if rec.NodeID == "" {
			return nil, fmt.Errorf("record %d: missing nodeId", i)
		}
	}
	return records, nil
}

// ImportJSON reads a JSON file at path and returns the decoded records.
func ImportJSON(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
