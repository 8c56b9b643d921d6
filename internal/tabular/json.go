package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// readJSONTables extracts at most one table from a JSON document. A root
// that is a list of records becomes the table directly. A root object is
// scanned key by key in document order; the first value that is a
// record-like list wins and is tagged with its key. Later qualifying
// lists are ignored on purpose, even when several exist.
func readJSONTables(path string) ([]*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}

	switch tok {
	case json.Delim('['):
		// Re-decode the whole document as a list.
		dec = json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var list []any
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("parsing json list: %w", err)
		}
		t, ok := tableFromList(list)
		if !ok {
			return nil, nil
		}
		return []*Table{t}, nil

	case json.Delim('{'):
		// Walk key/value pairs in document order; json.Decoder tokens
		// preserve it where a decoded Go map would not.
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("parsing json object: %w", err)
			}
			key, _ := keyTok.(string)

			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("parsing json value %q: %w", key, err)
			}

			list, isList := value.([]any)
			if !isList {
				continue
			}
			t, ok := tableFromList(list)
			if !ok {
				continue
			}
			t.SetConst(ColJSONKey, key)
			return []*Table{t}, nil
		}
		return nil, nil

	default:
		// Scalar root: no tabular content.
		return nil, nil
	}
}

// tableFromList converts a record-like list (every element a key-value
// mapping; an empty list qualifies) into a table. Returns false when any
// element is not a mapping.
func tableFromList(list []any) (*Table, bool) {
	rows := make([]map[string]any, 0, len(list))
	for _, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, false
		}
		rows = append(rows, obj)
	}

	t := New()
	for _, obj := range rows {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		row := make(map[string]string, len(obj))
		for _, k := range keys {
			row[k] = jsonCell(obj[k])
		}
		t.AddColumns(keys...)
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

// jsonCell renders a decoded JSON value as a cell string. Nested
// structures keep their compact JSON form.
func jsonCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(raw)
	}
}
