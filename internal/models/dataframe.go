package models

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Column kinds reported by Dtypes
const (
	KindInt      = "int64"
	KindFloat    = "float64"
	KindBool     = "bool"
	KindDatetime = "datetime64[ns]"
	KindObject   = "object"
)

// DataFrame is the tabular result of a SQL query. Rows hold one value per
// column in column order.
type DataFrame struct {
	Columns []string `json:"columns" bson:"columns"`
	Rows    [][]any  `json:"rows" bson:"rows"`
}

// NewDataFrame creates a DataFrame with the given columns
func NewDataFrame(columns ...string) *DataFrame {
	return &DataFrame{Columns: columns, Rows: [][]any{}}
}

// Append adds a row; the row must have one value per column
func (df *DataFrame) Append(values ...any) error {
	if len(values) != len(df.Columns) {
		return fmt.Errorf("row has %d values, want %d", len(values), len(df.Columns))
	}
	df.Rows = append(df.Rows, values)
	return nil
}

// Len returns the number of rows
func (df *DataFrame) Len() int {
	if df == nil {
		return 0
	}
	return len(df.Rows)
}

// Head returns a DataFrame holding the first n rows
func (df *DataFrame) Head(n int) *DataFrame {
	if n < 0 || n > len(df.Rows) {
		n = len(df.Rows)
	}
	return &DataFrame{Columns: df.Columns, Rows: df.Rows[:n]}
}

// ColumnIndex returns the position of a column or -1
func (df *DataFrame) ColumnIndex(name string) int {
	for i, c := range df.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every value of a column
func (df *DataFrame) Column(name string) []any {
	idx := df.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]any, len(df.Rows))
	for i, row := range df.Rows {
		values[i] = row[idx]
	}
	return values
}

// Records returns one map per row
func (df *DataFrame) Records() []map[string]any {
	records := make([]map[string]any, len(df.Rows))
	for i, row := range df.Rows {
		rec := make(map[string]any, len(df.Columns))
		for j, c := range df.Columns {
			rec[c] = row[j]
		}
		records[i] = rec
	}
	return records
}

// RecordsJSON renders the rows as a JSON array of objects whose keys follow
// column order
func (df *DataFrame) RecordsJSON() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range df.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, c := range df.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(c)
			if err != nil {
				return "", fmt.Errorf("failed to encode column %q: %w", c, err)
			}
			value, err := json.Marshal(jsonValue(row[j]))
			if err != nil {
				return "", fmt.Errorf("failed to encode value of column %q: %w", c, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// CSV renders the frame with a leading unnamed index column
func (df *DataFrame) CSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{""}, df.Columns...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, row := range df.Rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.Itoa(i))
		for _, v := range row {
			record = append(record, formatValue(v))
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.String(), nil
}

// Markdown renders the frame as a markdown table
func (df *DataFrame) Markdown() string {
	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(df.Columns, " | "))
	b.WriteString(" |\n|")
	for range df.Columns {
		b.WriteString(":---|")
	}
	b.WriteString("\n")
	for _, row := range df.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strings.ReplaceAll(formatValue(v), "|", "\\|")
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}
	return b.String()
}

// Dtypes infers the kind of every column from its non-nil values
func (df *DataFrame) Dtypes() map[string]string {
	kinds := make(map[string]string, len(df.Columns))
	for j, c := range df.Columns {
		kind := ""
		for _, row := range df.Rows {
			k := valueKind(row[j])
			if k == "" {
				continue
			}
			switch {
			case kind == "":
				kind = k
			case kind == k:
			case (kind == KindInt && k == KindFloat) || (kind == KindFloat && k == KindInt):
				kind = KindFloat
			default:
				kind = KindObject
			}
		}
		if kind == "" {
			kind = KindObject
		}
		kinds[c] = kind
	}
	return kinds
}

// DtypesString describes the column kinds one per line, in column order
func (df *DataFrame) DtypesString() string {
	kinds := df.Dtypes()
	var b strings.Builder
	for _, c := range df.Columns {
		fmt.Fprintf(&b, "%s    %s\n", c, kinds[c])
	}
	return b.String()
}

// NumericColumns returns the int and float columns in column order
func (df *DataFrame) NumericColumns() []string {
	kinds := df.Dtypes()
	var cols []string
	for _, c := range df.Columns {
		if kinds[c] == KindInt || kinds[c] == KindFloat {
			cols = append(cols, c)
		}
	}
	return cols
}

// CategoricalColumns returns the object columns in column order
func (df *DataFrame) CategoricalColumns() []string {
	kinds := df.Dtypes()
	var cols []string
	for _, c := range df.Columns {
		if kinds[c] == KindObject {
			cols = append(cols, c)
		}
	}
	return cols
}

// NUnique counts the distinct non-nil values of a column
func (df *DataFrame) NUnique(column string) int {
	seen := make(map[string]struct{})
	for _, v := range df.Column(column) {
		if v == nil {
			continue
		}
		seen[formatValue(v)] = struct{}{}
	}
	return len(seen)
}

// NormalizeValue converts driver values into JSON friendly Go values
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	case int8:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func valueKind(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case bool:
		return KindBool
	case time.Time:
		return KindDatetime
	default:
		return KindObject
	}
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return nil
		}
	}
	return v
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

// ToFloat converts numeric values for charting
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseRecordsJSON decodes a JSON array of objects into a DataFrame. Columns
// follow the order in which keys first appear.
func ParseRecordsJSON(data []byte) (*DataFrame, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	df := NewDataFrame()
	index := make(map[string]int)
	var records []map[string]any

	for i, item := range raw {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()

		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", i, err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, fmt.Errorf("record %d is not an object", i)
		}

		rec := make(map[string]any)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("failed to decode record %d: %w", i, err)
			}
			key := keyTok.(string)
			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("failed to decode record %d field %q: %w", i, key, err)
			}
			if _, ok := index[key]; !ok {
				index[key] = len(df.Columns)
				df.Columns = append(df.Columns, key)
			}
			rec[key] = fromJSONNumber(value)
		}
		records = append(records, rec)
	}

	for _, rec := range records {
		row := make([]any, len(df.Columns))
		for key, value := range rec {
			row[index[key]] = value
		}
		df.Rows = append(df.Rows, row)
	}
	return df, nil
}

func fromJSONNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
